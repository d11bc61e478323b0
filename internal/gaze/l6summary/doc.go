// Package l6summary owns Layer 6 (Summary) of the gaze data model.
//
// Responsibilities: validating detected trial sequences against expected
// templates, grouping trial metrics by direction and segment, and building
// normalized-time pupil trends.
// Key types: SequenceCheck, Stat, Summary, Report, PupilTrend.
//
// Dependency rule: L6 may depend on L1–L5. Nothing in the core depends on L6.
package l6summary
