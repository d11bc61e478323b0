package l5metrics

import (
	"fmt"
	"sort"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"gonum.org/v1/gonum/stat"
)

// TrialMetrics are the per-trial aggregates. Every pointer is nil when the
// trial lacked the data for it.
type TrialMetrics struct {
	TrialID     int `json:"trial_id"`
	Frames      int `json:"frames"`
	ValidFrames int `json:"valid_frames"`
	InBoxFrames int `json:"in_box_frames"`

	GazeInBoxFraction           *float64 `json:"gaze_in_box_fraction"`
	ExcursionSuccess            *bool    `json:"excursion_success"`
	DirectionalExcursionSuccess *bool    `json:"directional_excursion_success"`
	DirectionalExcursionReached *float64 `json:"directional_excursion_reached"`

	MeanGazeSpeed     *float64 `json:"mean_gaze_speed"`
	MeanTargetSpeed   *float64 `json:"mean_target_speed"`
	MeanPupilDiameter *float64 `json:"mean_pupil_diameter"`
	LatencySeconds    *float64 `json:"latency_s"`
}

// ComputeTrials computes metrics for every trial. frames and fm are
// parallel and sorted by frame index.
func ComputeTrials(trials []gaze.Trial, frames []Frame, fm []FrameMetrics, opts Options) ([]TrialMetrics, []gaze.Diagnostic) {
	out := make([]TrialMetrics, 0, len(trials))
	var diags []gaze.Diagnostic
	for _, t := range trials {
		lo := sort.Search(len(frames), func(i int) bool { return frames[i].Frame >= t.StartFrame })
		hi := sort.Search(len(frames), func(i int) bool { return frames[i].Frame > t.EndFrame })
		var origin *gaze.Point
		if lo > 0 {
			origin = frames[lo-1].TargetCenter
		}
		m, d := computeTrial(t, origin, frames[lo:hi], fm[lo:hi], opts)
		out = append(out, m)
		diags = append(diags, d...)
	}
	return out, diags
}

// ComputeTrial aggregates the frames of one trial. frames and fm hold only
// that trial's rows.
func ComputeTrial(t gaze.Trial, frames []Frame, fm []FrameMetrics, opts Options) (TrialMetrics, []gaze.Diagnostic) {
	return computeTrial(t, nil, frames, fm, opts)
}

func computeTrial(t gaze.Trial, origin *gaze.Point, frames []Frame, fm []FrameMetrics, opts Options) (TrialMetrics, []gaze.Diagnostic) {
	m := TrialMetrics{TrialID: t.ID, Frames: len(frames)}
	var missing []string

	firstIn := -1
	for i, x := range fm {
		if x.GazeInBox == nil {
			continue
		}
		m.ValidFrames++
		if *x.GazeInBox {
			m.InBoxFrames++
			if firstIn < 0 {
				firstIn = frames[i].Frame
			}
		}
	}
	if m.ValidFrames > 0 {
		frac := float64(m.InBoxFrames) / float64(m.ValidFrames)
		m.GazeInBoxFraction = &frac
		m.ExcursionSuccess = gaze.Ptr(frac >= opts.SuccessThreshold)
		if firstIn >= 0 {
			m.LatencySeconds = gaze.Ptr(float64(firstIn-t.StartFrame) / opts.FrameRate)
		}
	} else {
		missing = append(missing, "gaze_in_box")
	}

	if dx, ok := DirectionalExcursionFrom(t.Direction, origin, frames, opts.DirectionalMargin); ok {
		m.DirectionalExcursionSuccess = gaze.Ptr(dx.Success)
		m.DirectionalExcursionReached = gaze.Ptr(dx.Reached)
	} else {
		missing = append(missing, "directional_excursion")
	}

	var gs, ts, pd []float64
	for i, x := range fm {
		if x.GazeSpeed != nil {
			gs = append(gs, *x.GazeSpeed)
		}
		if x.TargetSpeed != nil {
			ts = append(ts, *x.TargetSpeed)
		}
		if p := frames[i].Pupil; p != nil {
			pd = append(pd, *p)
		}
	}
	if m.MeanGazeSpeed = mean(gs); m.MeanGazeSpeed == nil {
		missing = append(missing, "gaze_speed")
	}
	if m.MeanTargetSpeed = mean(ts); m.MeanTargetSpeed == nil {
		missing = append(missing, "target_speed")
	}
	if m.MeanPupilDiameter = mean(pd); m.MeanPupilDiameter == nil {
		missing = append(missing, "pupil_diameter")
	}

	diags := make([]gaze.Diagnostic, 0, len(missing))
	for _, name := range missing {
		diags = append(diags, gaze.Diagnostic{
			Kind:    gaze.KindInsufficientTrialData,
			Frame:   -1,
			TrialID: t.ID,
			Segment: t.Segment,
			Message: fmt.Sprintf("no valid frames for %s in trial %d (frames %d-%d)", name, t.ID, t.StartFrame, t.EndFrame),
		})
	}
	return m, diags
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	return gaze.Ptr(stat.Mean(xs, nil))
}
