// Package gaze holds the shared data model for the gaze-tracking analysis
// layers.
//
// Responsibilities: per-frame records (FrameRecord), geometry primitives
// (Point, Size, Corners), zone and direction labels, experimental segments,
// trials, and the diagnostics taxonomy shared by every layer.
//
// Layer packages (l1streams .. l6summary) depend on this package; this
// package depends on none of them.
package gaze
