package l6summary

import (
	"math"
	"sort"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// DefaultTrendPoints samples normalized trial time at every whole percent.
const DefaultTrendPoints = 101

// PupilTrend is the mean pupil diameter over normalized trial time for one
// (segment, direction) group, with the population standard deviation
// across trials at each point.
type PupilTrend struct {
	Segment   string         `json:"segment_name"`
	Direction gaze.Direction `json:"direction"`
	Trials    int            `json:"trials"`
	Percent   []float64      `json:"percent"`
	Mean      []float64      `json:"mean"`
	StdDev    []float64      `json:"std_dev"`
}

// PupilTrends resamples each trial's pupil series onto points evenly spaced
// positions over 0-100 % of the trial and averages per (segment,
// direction). series maps trial ID to its non-null pupil values in frame
// order; trials with fewer than two values are skipped, as are groups left
// empty.
func PupilTrends(trials []gaze.Trial, series map[int][]float64, points int) []PupilTrend {
	if points < 2 {
		points = DefaultTrendPoints
	}
	grid := floats.Span(make([]float64, points), 0, 100)

	type key struct {
		seg string
		dir gaze.Direction
	}
	groups := map[key][][]float64{}
	var order []key
	for _, t := range trials {
		ys := series[t.ID]
		if len(ys) < 2 {
			continue
		}
		resampled, ok := resample(ys, grid)
		if !ok {
			continue
		}
		k := key{t.Segment, t.Direction}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], resampled)
	}

	// segments keep first-seen order, directions reporting order
	segRank := map[string]int{}
	for _, k := range order {
		if _, ok := segRank[k.seg]; !ok {
			segRank[k.seg] = len(segRank)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if segRank[order[i].seg] != segRank[order[j].seg] {
			return segRank[order[i].seg] < segRank[order[j].seg]
		}
		return gaze.DirectionRank(order[i].dir) < gaze.DirectionRank(order[j].dir)
	})

	var out []PupilTrend
	for _, k := range order {
		rows := groups[k]
		tr := PupilTrend{
			Segment:   k.seg,
			Direction: k.dir,
			Trials:    len(rows),
			Percent:   append([]float64(nil), grid...),
			Mean:      make([]float64, points),
			StdDev:    make([]float64, points),
		}
		col := make([]float64, len(rows))
		for p := range grid {
			for i, row := range rows {
				col[i] = row[p]
			}
			mean, variance := stat.PopMeanVariance(col, nil)
			tr.Mean[p] = mean
			tr.StdDev[p] = math.Sqrt(variance)
		}
		out = append(out, tr)
	}
	return out
}

// resample linearly interpolates ys, taken as evenly spaced over 0-100,
// at each grid position.
func resample(ys []float64, grid []float64) ([]float64, bool) {
	xs := floats.Span(make([]float64, len(ys)), 0, 100)
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, false
	}
	out := make([]float64, len(grid))
	for i, x := range grid {
		out[i] = pl.Predict(x)
	}
	return out, true
}
