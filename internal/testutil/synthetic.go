package testutil

import (
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Scene-camera defaults for synthetic sessions.
const (
	SceneWidth  = 1280
	SceneHeight = 720
	FrameRate   = 30
)

// Target positions on the normalized surface.
var Positions = map[gaze.Zone]gaze.Point{
	gaze.ZoneCenter: {X: 0.5, Y: 0.5},
	gaze.ZoneRight:  {X: 0.85, Y: 0.5},
	gaze.ZoneLeft:   {X: 0.15, Y: 0.5},
	gaze.ZoneUp:     {X: 0.5, Y: 0.15},
	gaze.ZoneDown:   {X: 0.5, Y: 0.85},
}

// Phase holds the target in one zone for a number of frames.
type Phase struct {
	Zone   gaze.Zone
	Frames int
}

// Session configures a synthetic recording.
type Session struct {
	Phases []Phase
	// StartFrame numbers the first frame.
	StartFrame int
	// StartNs is the first frame's timestamp.
	StartNs int64
	// TargetSize is the normalized target box.
	TargetSize gaze.Size
	// GazeOffset is added to the target centre to give the gaze. Zero
	// gives a perfect tracker.
	GazeOffset gaze.Point
	// NoGaze drops gaze entirely.
	NoGaze bool
	// Pupil is the constant pupil diameter; nil leaves it absent.
	Pupil *float64
	// NoSurface leaves every frame without corners.
	NoSurface bool
}

// DefaultSession returns a perfect-gaze session over phases.
func DefaultSession(phases ...Phase) Session {
	return Session{
		Phases:     phases,
		StartNs:    1_700_000_000_000_000_000,
		TargetSize: gaze.Size{W: 0.05, H: 0.0889},
		Pupil:      gaze.Ptr(3.5),
	}
}

// FullFrameCorners is a surface covering the whole scene camera.
func FullFrameCorners() gaze.Corners {
	return gaze.Corners{
		TL: gaze.Point{X: 0, Y: 0},
		TR: gaze.Point{X: SceneWidth - 1, Y: 0},
		BR: gaze.Point{X: SceneWidth - 1, Y: SceneHeight - 1},
		BL: gaze.Point{X: 0, Y: SceneHeight - 1},
	}
}

// FrameInterval is the nominal spacing between frames.
func FrameInterval() time.Duration {
	return time.Second / FrameRate
}

// Frames renders the session as frame records in frame order.
func (s Session) Frames() []gaze.FrameRecord {
	var out []gaze.FrameRecord
	frame := s.StartFrame
	corners := FullFrameCorners()
	for _, ph := range s.Phases {
		pos := Positions[ph.Zone]
		for i := 0; i < ph.Frames; i++ {
			rec := gaze.FrameRecord{
				Frame:        frame,
				TimestampNs:  s.StartNs + int64(frame-s.StartFrame)*FrameInterval().Nanoseconds(),
				TargetCenter: gaze.Ptr(pos),
				TargetSize:   gaze.Ptr(s.TargetSize),
			}
			if !s.NoGaze {
				rec.Gaze = &gaze.Point{X: pos.X + s.GazeOffset.X, Y: pos.Y + s.GazeOffset.Y}
			}
			if s.Pupil != nil {
				rec.PupilDiameter = gaze.Ptr(*s.Pupil)
			}
			if !s.NoSurface {
				rec.Corners = gaze.Ptr(corners)
			}
			out = append(out, rec)
			frame++
		}
	}
	return out
}

// TotalFrames is the number of frames the session renders.
func (s Session) TotalFrames() int {
	n := 0
	for _, ph := range s.Phases {
		n += ph.Frames
	}
	return n
}

// StandardTrials returns phases for the usual trial block: each direction
// shown for trialFrames, separated by pauseFrames at centre, with a
// leading centre hold.
func StandardTrials(dirs []gaze.Direction, trialFrames, pauseFrames int) []Phase {
	phases := []Phase{{Zone: gaze.ZoneCenter, Frames: pauseFrames}}
	for _, d := range dirs {
		phases = append(phases,
			Phase{Zone: gaze.Zone(d), Frames: trialFrames},
			Phase{Zone: gaze.ZoneCenter, Frames: pauseFrames},
		)
	}
	return phases
}
