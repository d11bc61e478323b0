// Package l3zones owns Layer 3 (Zones) of the gaze data model.
//
// Responsibilities: mapping a normalized surface point to one of the six
// screen zones.
// Key functions: Classify, ClassifyXY.
//
// Dependency rule: L3 may depend on L1 and L2, but never on L4+.
package l3zones
