package gaze

import (
	"fmt"
	"sort"
)

// Segment is a named experimental epoch ("fast", "slow") covering the
// inclusive frame range [StartFrame, EndFrame].
type Segment struct {
	Name       string `json:"segment_name"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
}

// Contains reports whether frame lies inside the segment.
func (s Segment) Contains(frame int) bool {
	return frame >= s.StartFrame && frame <= s.EndFrame
}

// ValidateSegments sorts segments by start frame and rejects empty names,
// inverted ranges and overlaps.
func ValidateSegments(segments []Segment) error {
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].StartFrame < segments[j].StartFrame })
	for i, s := range segments {
		if s.Name == "" {
			return fmt.Errorf("%w: segment %d has no name", ErrInvalidInput, i)
		}
		if s.EndFrame < s.StartFrame {
			return fmt.Errorf("%w: segment %q ends (%d) before it starts (%d)", ErrInvalidInput, s.Name, s.EndFrame, s.StartFrame)
		}
		if i > 0 && s.StartFrame <= segments[i-1].EndFrame {
			return fmt.Errorf("%w: segment %q overlaps %q", ErrInvalidInput, s.Name, segments[i-1].Name)
		}
	}
	return nil
}

// FindSegment returns the segment containing frame. Segments must be sorted.
func FindSegment(segments []Segment, frame int) (Segment, bool) {
	i := sort.Search(len(segments), func(k int) bool { return segments[k].EndFrame >= frame })
	if i < len(segments) && segments[i].Contains(frame) {
		return segments[i], true
	}
	return Segment{}, false
}

// Trial is one excursion from center to a directional zone and back.
// EndFrame is the return-to-center frame, or the last frame seen when the
// trial never returned (Truncated).
type Trial struct {
	ID         int       `json:"trial_id"`
	Direction  Direction `json:"direction"`
	StartFrame int       `json:"start_frame"`
	EndFrame   int       `json:"end_frame"`
	Segment    string    `json:"segment_name"`

	Truncated            bool `json:"trial_truncated"`
	SpansSegmentBoundary bool `json:"spans_segment_boundary"`
}

// Contains reports whether frame falls inside the trial.
func (t Trial) Contains(frame int) bool {
	return frame >= t.StartFrame && frame <= t.EndFrame
}
