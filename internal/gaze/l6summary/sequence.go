package l6summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// SequenceCheck is the outcome of comparing one segment's detected
// direction sequence with the expected one.
type SequenceCheck struct {
	Segment  string           `json:"segment_name"`
	Expected []gaze.Direction `json:"expected"`
	Detected []gaze.Direction `json:"detected"`
	Match    bool             `json:"match"`
	// Compared is the length of the prefix that was compared.
	Compared       int    `json:"compared"`
	LengthMismatch bool   `json:"length_mismatch"`
	Note           string `json:"note,omitempty"`
}

// ValidateSequence compares detected against expected element by element.
// A detected list shorter than expected is compared on the overlapping
// prefix only; a longer one never matches. Order and repetition matter.
func ValidateSequence(segment string, detected, expected []gaze.Direction) SequenceCheck {
	chk := SequenceCheck{
		Segment:  segment,
		Expected: append([]gaze.Direction(nil), expected...),
		Detected: append([]gaze.Direction(nil), detected...),
		Compared: min(len(detected), len(expected)),
	}
	chk.Match = len(detected) <= len(expected)
	for i := 0; i < chk.Compared; i++ {
		if detected[i] != expected[i] {
			chk.Match = false
			chk.Note = fmt.Sprintf("position %d: detected %s, expected %s", i+1, detected[i], expected[i])
			break
		}
	}

	if len(detected) != len(expected) {
		chk.LengthMismatch = true
		lengths := fmt.Sprintf("detected %d trials, expected %d", len(detected), len(expected))
		if chk.Note == "" {
			chk.Note = lengths
		} else {
			chk.Note += "; " + lengths
		}
	}
	return chk
}

// DetectedSequence returns the directions of a segment's trials in
// trial-ID order.
func DetectedSequence(trials []gaze.Trial, segment string) []gaze.Direction {
	var seg []gaze.Trial
	for _, t := range trials {
		if t.Segment == segment {
			seg = append(seg, t)
		}
	}
	sort.SliceStable(seg, func(i, j int) bool { return seg[i].ID < seg[j].ID })
	out := make([]gaze.Direction, len(seg))
	for i, t := range seg {
		out[i] = t.Direction
	}
	return out
}

// ValidateSequences checks every segment that has an expected sequence, in
// segment-name order. Each failed check is also returned as a
// SequenceMismatch diagnostic.
func ValidateSequences(trials []gaze.Trial, expected map[string][]gaze.Direction) ([]SequenceCheck, []gaze.Diagnostic) {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	var checks []SequenceCheck
	var diags []gaze.Diagnostic
	for _, name := range names {
		chk := ValidateSequence(name, DetectedSequence(trials, name), expected[name])
		checks = append(checks, chk)
		if !chk.Match {
			diags = append(diags, gaze.Diagnostic{
				Kind:    gaze.KindSequenceMismatch,
				Frame:   -1,
				Segment: name,
				Message: fmt.Sprintf("segment %q: detected [%s], expected [%s] (%s)",
					name, join(chk.Detected), join(chk.Expected), chk.Note),
			})
		}
	}
	return checks, diags
}

func join(dirs []gaze.Direction) string {
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}
