// Package l5metrics owns Layer 5 (Metrics) of the gaze data model.
//
// Responsibilities: per-frame target and gaze speed, the padded
// gaze-in-box test, and per-trial excursion, directional excursion,
// latency and pupil aggregates.
// Key types: Options, Frame, FrameMetrics, TrialMetrics.
//
// Null propagation: a metric that cannot be computed is nil, never zero,
// and each nil trial metric is reported as an InsufficientTrialData
// diagnostic so aggregates can exclude it.
//
// Dependency rule: L5 may depend on L1–L4, but never on L6+.
package l5metrics
