package l5metrics

import (
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l2surface"
	"github.com/banshee-data/gaze.report/internal/gaze/l4trials"
)

// Frame is the metrics view of one frame after rectification. Surface is
// nil when the frame had no usable geometry.
type Frame struct {
	Frame        int
	TargetCenter *gaze.Point
	TargetSize   *gaze.Size
	Gaze         *gaze.Point
	Pupil        *float64
	Surface      *l2surface.OutputSize
}

// FrameMetrics are the per-frame derived quantities.
type FrameMetrics struct {
	TargetSpeed *float64 `json:"target_speed"`
	GazeSpeed   *float64 `json:"gaze_speed"`
	GazeInBox   *bool    `json:"gaze_in_box"`
}

// ComputeFrames derives speeds and the gaze-in-box flag for every frame.
// frames and labels are parallel and ordered by frame. Speed is the
// distance to the previous row's point, reset to 0 on a trial's first frame.
func ComputeFrames(frames []Frame, labels []l4trials.Label, opts Options) []FrameMetrics {
	out := make([]FrameMetrics, len(frames))
	for i, f := range frames {
		start := false
		if i < len(labels) && labels[i].InTrial() {
			start = i == 0 || labels[i-1].TrialID != labels[i].TrialID
		}

		var prevTarget, prevGaze *gaze.Point
		if i > 0 {
			prevTarget, prevGaze = frames[i-1].TargetCenter, frames[i-1].Gaze
		}
		out[i] = FrameMetrics{
			TargetSpeed: speed(prevTarget, f.TargetCenter, start),
			GazeSpeed:   speed(prevGaze, f.Gaze, start),
			GazeInBox:   GazeInBox(f, opts.PaddingFactor),
		}
	}
	return out
}

func speed(prev, cur *gaze.Point, reset bool) *float64 {
	if cur == nil {
		return nil
	}
	if reset {
		return gaze.Ptr(0.0)
	}
	if prev == nil {
		return nil
	}
	return gaze.Ptr(prev.Dist(*cur))
}

// GazeInBox reports whether the gaze falls inside the target box scaled by
// padding, compared in rectified pixels with edges inclusive. It is nil
// when the target, its size, the gaze or the surface is missing.
func GazeInBox(f Frame, padding float64) *bool {
	if f.TargetCenter == nil || f.TargetSize == nil || f.Gaze == nil || f.Surface == nil {
		return nil
	}
	if !f.TargetCenter.Valid() || !f.Gaze.Valid() {
		return nil
	}
	c := f.Surface.Denormalize(*f.TargetCenter)
	sz := f.Surface.DenormalizeSize(*f.TargetSize)
	g := f.Surface.Denormalize(*f.Gaze)

	halfW := sz.W * padding / 2
	halfH := sz.H * padding / 2
	in := g.X >= c.X-halfW && g.X <= c.X+halfW &&
		g.Y >= c.Y-halfH && g.Y <= c.Y+halfH
	return &in
}
