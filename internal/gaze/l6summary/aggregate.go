package l6summary

import (
	"sort"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l5metrics"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Stat is a mean over the trials that had the value. It is nil on a
// Summary when no trial in the group had it.
type Stat struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Summary aggregates one group of trials. Segment is empty for the
// direction-only grouping; Direction is empty for the per-segment overall
// grouping. Perc fields are on a 0-100 scale, the rest keep their units.
type Summary struct {
	Segment    string         `json:"segment_name,omitempty"`
	Direction  gaze.Direction `json:"direction,omitempty"`
	TrialCount int            `json:"trial_count"`

	// GazeInBoxPerc pools frames across trials.
	GazeInBoxPerc *Stat `json:"gaze_in_box_perc"`
	// ExcursionPercFrames is the mean of per-trial in-box fractions (0-1).
	ExcursionPercFrames    *Stat `json:"excursion_perc_frames"`
	ExcursionSuccessPerc   *Stat `json:"excursion_success_perc"`
	DirectionalSuccessPerc *Stat `json:"directional_excursion_success_perc"`
	DirectionalReached     *Stat `json:"avg_directional_excursion_reached"`

	GazeSpeed     *Stat `json:"avg_gaze_speed"`
	TargetSpeed   *Stat `json:"avg_target_speed"`
	PupilDiameter *Stat `json:"avg_pupil_diameter"`
	Latency       *Stat `json:"avg_latency_s"`

	MedianLatency *float64 `json:"median_latency_s"`
}

// Report holds the three independent groupings.
type Report struct {
	ByDirection        []Summary `json:"by_direction"`
	BySegmentDirection []Summary `json:"by_segment_direction"`
	BySegment          []Summary `json:"by_segment"`
}

// Result pairs a trial with its metrics.
type Result struct {
	Trial   gaze.Trial
	Metrics l5metrics.TrialMetrics
}

// Pair joins trials with their metrics by trial ID, in trial order. Trials
// without metrics are skipped.
func Pair(trials []gaze.Trial, metrics []l5metrics.TrialMetrics) []Result {
	byID := make(map[int]l5metrics.TrialMetrics, len(metrics))
	for _, m := range metrics {
		byID[m.TrialID] = m
	}
	out := make([]Result, 0, len(trials))
	for _, t := range trials {
		if m, ok := byID[t.ID]; ok {
			out = append(out, Result{Trial: t, Metrics: m})
		}
	}
	return out
}

// Aggregate groups results by direction, by (segment, direction) and by
// segment. Groups with no trials are omitted. Directions follow
// gaze.Directions order; segments follow their first trial.
func Aggregate(results []Result) Report {
	var rep Report
	segments := segmentOrder(results)

	for _, d := range gaze.Directions {
		if s, ok := summarize("", d, filter(results, func(r Result) bool { return r.Trial.Direction == d })); ok {
			rep.ByDirection = append(rep.ByDirection, s)
		}
	}
	for _, seg := range segments {
		for _, d := range gaze.Directions {
			group := filter(results, func(r Result) bool { return r.Trial.Segment == seg && r.Trial.Direction == d })
			if s, ok := summarize(seg, d, group); ok {
				rep.BySegmentDirection = append(rep.BySegmentDirection, s)
			}
		}
		if s, ok := summarize(seg, gaze.DirectionNone, filter(results, func(r Result) bool { return r.Trial.Segment == seg })); ok {
			rep.BySegment = append(rep.BySegment, s)
		}
	}
	return rep
}

// Find returns the summary for (segment, direction) from a grouping.
func Find(summaries []Summary, segment string, dir gaze.Direction) (Summary, bool) {
	for _, s := range summaries {
		if s.Segment == segment && s.Direction == dir {
			return s, true
		}
	}
	return Summary{}, false
}

func segmentOrder(results []Result) []string {
	first := map[string]int{}
	for _, r := range results {
		seg := r.Trial.Segment
		if seg == "" {
			continue
		}
		if f, ok := first[seg]; !ok || r.Trial.StartFrame < f {
			first[seg] = r.Trial.StartFrame
		}
	}
	names := make([]string, 0, len(first))
	for n := range first {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if first[names[i]] != first[names[j]] {
			return first[names[i]] < first[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func filter(results []Result, keep func(Result) bool) []Result {
	var out []Result
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func summarize(segment string, dir gaze.Direction, group []Result) (Summary, bool) {
	if len(group) == 0 {
		return Summary{}, false
	}
	s := Summary{Segment: segment, Direction: dir, TrialCount: len(group)}

	var inBox, valid, withFrames int
	var fracs, success, dirSuccess, reached, gazeSpeed, targetSpeed, pupil, latency []float64
	for _, r := range group {
		m := r.Metrics
		if m.ValidFrames > 0 {
			inBox += m.InBoxFrames
			valid += m.ValidFrames
			withFrames++
		}
		fracs = appendPtr(fracs, m.GazeInBoxFraction)
		success = appendBool(success, m.ExcursionSuccess)
		dirSuccess = appendBool(dirSuccess, m.DirectionalExcursionSuccess)
		reached = appendPtr(reached, m.DirectionalExcursionReached)
		gazeSpeed = appendPtr(gazeSpeed, m.MeanGazeSpeed)
		targetSpeed = appendPtr(targetSpeed, m.MeanTargetSpeed)
		pupil = appendPtr(pupil, m.MeanPupilDiameter)
		latency = appendPtr(latency, m.LatencySeconds)
	}

	if valid > 0 {
		s.GazeInBoxPerc = &Stat{Mean: 100 * float64(inBox) / float64(valid), Count: withFrames}
	}
	s.ExcursionPercFrames = meanOf(fracs, 1)
	s.ExcursionSuccessPerc = meanOf(success, 100)
	s.DirectionalSuccessPerc = meanOf(dirSuccess, 100)
	s.DirectionalReached = meanOf(reached, 1)
	s.GazeSpeed = meanOf(gazeSpeed, 1)
	s.TargetSpeed = meanOf(targetSpeed, 1)
	s.PupilDiameter = meanOf(pupil, 1)
	s.Latency = meanOf(latency, 1)
	if len(latency) > 0 {
		if med, err := stats.Median(latency); err == nil {
			s.MedianLatency = &med
		}
	}
	return s, true
}

func meanOf(xs []float64, scale float64) *Stat {
	if len(xs) == 0 {
		return nil
	}
	return &Stat{Mean: scale * stat.Mean(xs, nil), Count: len(xs)}
}

func appendPtr(xs []float64, v *float64) []float64 {
	if v == nil {
		return xs
	}
	return append(xs, *v)
}

func appendBool(xs []float64, v *bool) []float64 {
	if v == nil {
		return xs
	}
	if *v {
		return append(xs, 1)
	}
	return append(xs, 0)
}
