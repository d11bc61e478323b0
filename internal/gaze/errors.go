package gaze

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAlignmentInput means the reference timeline has no rows.
	ErrEmptyAlignmentInput = errors.New("empty alignment input")
	// ErrDegenerateSurfaceGeometry means a frame's corners cannot be rectified.
	ErrDegenerateSurfaceGeometry = errors.New("degenerate surface geometry")
	// ErrTrialSpansSegmentBoundary means a trial's frames cross a segment end.
	ErrTrialSpansSegmentBoundary = errors.New("trial spans segment boundary")
	// ErrSequenceMismatch means detected directions differ from the template.
	ErrSequenceMismatch = errors.New("sequence mismatch")
	// ErrInsufficientTrialData means a trial has no valid frames for a metric.
	ErrInsufficientTrialData = errors.New("insufficient trial data")
	// ErrInvalidInput covers structural problems with the supplied tables.
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindEmptyAlignmentInput       Kind = "EmptyAlignmentInput"
	KindDegenerateSurfaceGeometry Kind = "DegenerateSurfaceGeometry"
	KindTrialSpansSegmentBoundary Kind = "TrialSpansSegmentBoundary"
	KindSequenceMismatch          Kind = "SequenceMismatch"
	KindInsufficientTrialData     Kind = "InsufficientTrialData"
)

// Fatal reports whether the kind aborts a run. Everything else is recovered
// locally and only reported.
func (k Kind) Fatal() bool {
	return k == KindEmptyAlignmentInput
}

func (k Kind) sentinel() error {
	switch k {
	case KindEmptyAlignmentInput:
		return ErrEmptyAlignmentInput
	case KindDegenerateSurfaceGeometry:
		return ErrDegenerateSurfaceGeometry
	case KindTrialSpansSegmentBoundary:
		return ErrTrialSpansSegmentBoundary
	case KindSequenceMismatch:
		return ErrSequenceMismatch
	case KindInsufficientTrialData:
		return ErrInsufficientTrialData
	}
	return ErrInvalidInput
}

// Diagnostic is a data-quality caveat attached to a run. Frame and TrialID
// are -1 / 0 when not applicable.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Frame   int    `json:"frame"`
	TrialID int    `json:"trial_id"`
	Segment string `json:"segment_name,omitempty"`
	Message string `json:"message"`
}

// Err returns the diagnostic as an error wrapping the matching sentinel.
func (d Diagnostic) Err() error {
	return fmt.Errorf("%w: %s", d.Kind.sentinel(), d.Message)
}

func (d Diagnostic) String() string {
	switch {
	case d.TrialID > 0:
		return fmt.Sprintf("%s (trial %d): %s", d.Kind, d.TrialID, d.Message)
	case d.Frame >= 0:
		return fmt.Sprintf("%s (frame %d): %s", d.Kind, d.Frame, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// CountKind returns how many diagnostics have the given kind.
func CountKind(diags []Diagnostic, kind Kind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
