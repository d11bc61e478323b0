// Package l4trials owns Layer 4 (Trials) of the gaze data model.
//
// Responsibilities: turning the per-frame zone sequence into labelled
// trials with a pure state machine, then resolving each trial's segment.
// Key types: State, Label, Segmenter.
//
// The scan carries its state explicitly: Step takes the previous State and
// returns the next one, so the same sequence always yields the same trials.
// Trial IDs are global to a run and never reset between segments.
//
// Dependency rule: L4 may depend on L1–L3, but never on L5+.
package l4trials
