package l5metrics

import (
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// axis projects a point onto the trial direction so that larger values are
// further along it.
func axis(dir gaze.Direction, p gaze.Point) float64 {
	switch dir {
	case gaze.DirectionUp:
		return -p.Y
	case gaze.DirectionDown:
		return p.Y
	case gaze.DirectionLeft:
		return -p.X
	case gaze.DirectionRight:
		return p.X
	}
	return math.NaN()
}

// leadingEdge returns the target box edge furthest along dir, projected
// onto the axis.
func leadingEdge(dir gaze.Direction, c gaze.Point, s gaze.Size) float64 {
	switch dir {
	case gaze.DirectionUp:
		return -(c.Y - s.H/2)
	case gaze.DirectionDown:
		return c.Y + s.H/2
	case gaze.DirectionLeft:
		return -(c.X - s.W/2)
	case gaze.DirectionRight:
		return c.X + s.W/2
	}
	return math.NaN()
}

// Directional is the directional excursion outcome of one trial.
type Directional struct {
	// Threshold is the line the gaze must cross, in normalized surface
	// coordinates on the trial's axis (y for up/down, x for left/right).
	Threshold float64
	Success   bool
	Reached   float64
}

// DirectionalExcursion decides whether the gaze travelled as far as the
// target did along dir, less margin. The reached fraction is 1 on success,
// otherwise the gaze's best progress relative to the threshold's progress,
// both measured from the target's first centre in the trial and clamped to
// [0,1]. ok is false when the trial has no sized target or no gaze.
func DirectionalExcursion(dir gaze.Direction, frames []Frame, margin float64) (Directional, bool) {
	return DirectionalExcursionFrom(dir, nil, frames, margin)
}

// DirectionalExcursionFrom is DirectionalExcursion with progress measured
// from origin, normally the target centre on the frame before the trial
// starts. A target that jumps onto its goal in one frame then still gives a
// graded reached fraction. A nil or invalid origin falls back to the
// target's first centre in the trial.
func DirectionalExcursionFrom(dir gaze.Direction, origin *gaze.Point, frames []Frame, margin float64) (Directional, bool) {
	if origin != nil && !origin.Valid() {
		origin = nil
	}
	extreme := math.Inf(-1)
	for _, f := range frames {
		if f.TargetCenter == nil || !f.TargetCenter.Valid() {
			continue
		}
		if origin == nil {
			origin = f.TargetCenter
		}
		if f.TargetSize == nil {
			continue
		}
		extreme = math.Max(extreme, leadingEdge(dir, *f.TargetCenter, *f.TargetSize))
	}
	if origin == nil || math.IsInf(extreme, -1) || math.IsNaN(extreme) {
		return Directional{}, false
	}

	best := math.Inf(-1)
	for _, f := range frames {
		if f.Gaze == nil || !f.Gaze.Valid() {
			continue
		}
		best = math.Max(best, axis(dir, *f.Gaze))
	}
	if math.IsInf(best, -1) {
		return Directional{}, false
	}

	line := extreme - margin
	out := Directional{Threshold: unproject(dir, line)}
	if best >= line {
		out.Success = true
		out.Reached = 1
		return out, true
	}

	start := axis(dir, *origin)
	need := line - start
	if need <= 0 {
		return out, true
	}
	out.Reached = math.Max(0, math.Min(1, (best-start)/need))
	return out, true
}

// unproject maps an axis value back to a surface coordinate.
func unproject(dir gaze.Direction, v float64) float64 {
	if dir == gaze.DirectionUp || dir == gaze.DirectionLeft {
		return -v
	}
	return v
}
