package l4trials

import (
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// AssignSegments names each trial after the segment containing its start
// frame. Trials starting outside every segment keep an empty name. A trial
// still open when its segment ends stays in that segment, ends at the
// segment's last frame and is marked truncated as well as flagged and
// reported. segments must already be validated.
func AssignSegments(trials []gaze.Trial, segments []gaze.Segment) ([]gaze.Trial, []gaze.Diagnostic) {
	out := make([]gaze.Trial, len(trials))
	var diags []gaze.Diagnostic
	for i, t := range trials {
		seg, ok := gaze.FindSegment(segments, t.StartFrame)
		if !ok {
			t.Segment = ""
			out[i] = t
			continue
		}
		t.Segment = seg.Name
		if t.EndFrame > seg.EndFrame {
			diags = append(diags, gaze.Diagnostic{
				Kind:    gaze.KindTrialSpansSegmentBoundary,
				Frame:   seg.EndFrame,
				TrialID: t.ID,
				Segment: seg.Name,
				Message: fmt.Sprintf("trial %d (%s) runs frames %d-%d past segment %q ending at %d",
					t.ID, t.Direction, t.StartFrame, t.EndFrame, seg.Name, seg.EndFrame),
			})
			t.SpansSegmentBoundary = true
			t.Truncated = true
			t.EndFrame = seg.EndFrame
		}
		out[i] = t
	}
	return out, diags
}

// ClipLabels clears the label of every frame past the end of its trial, so
// frames after a segment boundary do not carry a trial cut off there. frames
// and labels are parallel; the result is a new slice.
func ClipLabels(frames []int, labels []Label, trials []gaze.Trial) []Label {
	end := make(map[int]int, len(trials))
	for _, t := range trials {
		end[t.ID] = t.EndFrame
	}
	out := make([]Label, len(labels))
	for i, l := range labels {
		if e, ok := end[l.TrialID]; ok && i < len(frames) && frames[i] > e {
			l = Label{}
		}
		out[i] = l
	}
	return out
}

// BySegment returns the trials of one segment in trial-ID order.
func BySegment(trials []gaze.Trial, segment string) []gaze.Trial {
	var out []gaze.Trial
	for _, t := range trials {
		if t.Segment == segment {
			out = append(out, t)
		}
	}
	return out
}
