// Package l1streams owns Layer 1 (Streams) of the gaze data model.
//
// Responsibilities: joining asynchronously sampled streams (gaze, pupil)
// onto the per-frame reference timeline by nearest timestamp within a
// fixed tolerance, and combining per-eye pupil diameters.
// Key types: Sample, Match.
//
// Dependency rule: L1 depends only on the shared gaze types.
package l1streams
