package l4trials

import (
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// State is the segmenter state threaded through the scan. The zero value is
// IDLE with no trials started.
type State struct {
	// Started counts trials started so far; the next trial gets Started+1.
	Started int

	Active    bool
	TrialID   int
	Direction gaze.Direction
}

// Label is the per-frame trial assignment. TrialID 0 means no trial.
type Label struct {
	TrialID   int            `json:"trial_id"`
	Direction gaze.Direction `json:"direction"`
}

// InTrial reports whether the frame belongs to a trial.
func (l Label) InTrial() bool { return l.TrialID > 0 }

// Step advances the state machine by one frame. prev is the previous frame's
// zone, or "" for the first frame.
//
//	IDLE     -> IN_TRIAL when prev is center and cur is directional
//	IN_TRIAL -> IDLE     when cur is center (that frame still belongs to the trial)
//	IN_TRIAL -> IN_TRIAL otherwise, including other
func Step(s State, prev, cur gaze.Zone) (State, Label) {
	if s.Active {
		label := Label{TrialID: s.TrialID, Direction: s.Direction}
		if cur == gaze.ZoneCenter {
			s.Active = false
			s.TrialID = 0
			s.Direction = gaze.DirectionNone
		}
		return s, label
	}

	if prev != gaze.ZoneCenter {
		return s, Label{}
	}
	dir, ok := cur.Direction()
	if !ok {
		return s, Label{}
	}
	s.Started++
	s.Active = true
	s.TrialID = s.Started
	s.Direction = dir
	return s, Label{TrialID: s.TrialID, Direction: dir}
}

// Segmenter accumulates trials while stepping through frames in order.
type Segmenter struct {
	state     State
	prev      gaze.Zone
	lastFrame int
	seen      bool
	open      *gaze.Trial
	trials    []gaze.Trial
}

// NewSegmenter returns a Segmenter in the IDLE state.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Push consumes the next frame. Frames must arrive in increasing order.
func (s *Segmenter) Push(frame int, zone gaze.Zone) (Label, error) {
	if s.seen && frame <= s.lastFrame {
		return Label{}, fmt.Errorf("%w: frame %d after %d", gaze.ErrInvalidInput, frame, s.lastFrame)
	}
	prev := s.prev
	if !s.seen {
		prev = ""
	}

	var label Label
	s.state, label = Step(s.state, prev, zone)

	if label.InTrial() {
		if s.open == nil {
			s.open = &gaze.Trial{ID: label.TrialID, Direction: label.Direction, StartFrame: frame}
		}
		s.open.EndFrame = frame
		if !s.state.Active {
			s.trials = append(s.trials, *s.open)
			s.open = nil
		}
	}

	s.prev = zone
	s.lastFrame = frame
	s.seen = true
	return label, nil
}

// State returns the current machine state.
func (s *Segmenter) State() State {
	return s.state
}

// Finish closes the scan. A trial still open is emitted with Truncated set
// and EndFrame at the last frame seen.
func (s *Segmenter) Finish() []gaze.Trial {
	out := append([]gaze.Trial(nil), s.trials...)
	if s.open != nil {
		t := *s.open
		t.Truncated = true
		out = append(out, t)
	}
	return out
}

// Segment runs the state machine over a full zone sequence. frames and zones
// are parallel slices ordered by frame.
func Segment(frames []int, zones []gaze.Zone) ([]Label, []gaze.Trial, error) {
	if len(frames) != len(zones) {
		return nil, nil, fmt.Errorf("%w: %d frames but %d zones", gaze.ErrInvalidInput, len(frames), len(zones))
	}
	seg := NewSegmenter()
	labels := make([]Label, len(frames))
	for i, f := range frames {
		l, err := seg.Push(f, zones[i])
		if err != nil {
			return nil, nil, err
		}
		labels[i] = l
	}
	return labels, seg.Finish(), nil
}
