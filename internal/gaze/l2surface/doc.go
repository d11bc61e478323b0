// Package l2surface owns Layer 2 (Surface) of the gaze data model.
//
// Responsibilities: projective rectification of the tracked screen
// quadrilateral onto a canonical rectangle, and conversion between
// rectified pixels and normalized surface coordinates.
// Key types: Homography, Rectifier, Transform.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2surface
