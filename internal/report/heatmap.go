package report

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
)

// heatmapBins is the number of cells per axis of a gaze heatmap.
const heatmapBins = 40

// gazeGrid counts gaze samples per cell of the normalized surface. It
// implements plotter.GridXYZ; empty cells are NaN so they stay transparent.
type gazeGrid struct {
	counts [heatmapBins][heatmapBins]float64
	max    float64
}

func (g *gazeGrid) add(p gaze.Point) {
	c := bin(p.X)
	// screen y grows downwards
	r := bin(1 - p.Y)
	g.counts[c][r]++
	g.max = math.Max(g.max, g.counts[c][r])
}

func bin(v float64) int {
	i := int(v * heatmapBins)
	return min(max(i, 0), heatmapBins-1)
}

func (g *gazeGrid) Dims() (c, r int) { return heatmapBins, heatmapBins }
func (g *gazeGrid) X(c int) float64  { return (float64(c) + 0.5) / heatmapBins }
func (g *gazeGrid) Y(r int) float64  { return (float64(r) + 0.5) / heatmapBins }

func (g *gazeGrid) Z(c, r int) float64 {
	if v := g.counts[c][r]; v > 0 {
		return v
	}
	return math.NaN()
}

// GazeHeatmapPlot renders the density of normalized gaze over one segment.
// With dir set only frames of trials in that direction count, otherwise
// every frame of the segment does. It returns false when no frame had gaze.
func GazeHeatmapPlot(w io.Writer, rows []pipeline.FrameRow, segment string, dir gaze.Direction) (bool, error) {
	g := &gazeGrid{}
	for _, r := range rows {
		if r.Segment != segment || r.Gaze == nil || !r.Gaze.Valid() {
			continue
		}
		if dir != gaze.DirectionNone && (!r.InTrial() || r.Direction != dir) {
			continue
		}
		g.add(*r.Gaze)
	}
	if g.max == 0 {
		return false, nil
	}

	p := plot.New()
	if dir == gaze.DirectionNone {
		p.Title.Text = fmt.Sprintf("Gaze heatmap - %s", segmentTitle(segment))
	} else {
		p.Title.Text = fmt.Sprintf("Gaze heatmap %s - %s", dir, segmentTitle(segment))
	}
	p.X.Label.Text = "x (normalized)"
	p.Y.Label.Text = "1 - y (normalized)"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	hm := plotter.NewHeatMap(g, palette.Heat(64, 1))
	hm.Min, hm.Max = 0, g.max
	p.Add(hm)
	p.Add(plotter.NewGrid())
	return true, render(w, p)
}
