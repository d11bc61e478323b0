package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// PupilTrendPlot renders the mean pupil trend of each direction of one
// segment, with dashed lines one standard deviation either side. It
// returns false when the segment has no trends.
func PupilTrendPlot(w io.Writer, trends []l6summary.PupilTrend, segment string) (bool, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Pupil diameter - %s", segmentTitle(segment))
	p.X.Label.Text = "Movement completion (%)"
	p.Y.Label.Text = "Pupil diameter (mm)"
	p.X.Min, p.X.Max = 0, 100

	colors := generateColors(len(gaze.Directions))
	drawn := 0
	for _, tr := range trends {
		if tr.Segment != segment || len(tr.Percent) == 0 {
			continue
		}
		c := colors[gaze.DirectionRank(tr.Direction)%len(colors)]

		mean := make(plotter.XYs, len(tr.Percent))
		upper := make(plotter.XYs, len(tr.Percent))
		lower := make(plotter.XYs, len(tr.Percent))
		for i, x := range tr.Percent {
			mean[i] = plotter.XY{X: x, Y: tr.Mean[i]}
			upper[i] = plotter.XY{X: x, Y: tr.Mean[i] + tr.StdDev[i]}
			lower[i] = plotter.XY{X: x, Y: tr.Mean[i] - tr.StdDev[i]}
		}

		line, err := plotter.NewLine(mean)
		if err != nil {
			return false, err
		}
		line.Color = c
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", tr.Direction, tr.Trials), line)

		for _, band := range []plotter.XYs{upper, lower} {
			l, err := plotter.NewLine(band)
			if err != nil {
				return false, err
			}
			l.Color = c
			l.Width = vg.Points(0.5)
			l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(l)
		}
		drawn++
	}
	if drawn == 0 {
		return false, nil
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return true, render(w, p)
}

// GazeScatterPlot renders the normalized gaze of every frame of one segment
// on the rectified surface, coloured by trial direction. Frames outside
// trials are grey. It returns false when no frame had gaze.
func GazeScatterPlot(w io.Writer, rows []pipeline.FrameRow, segment string) (bool, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Gaze on surface - %s", segmentTitle(segment))
	p.X.Label.Text = "x (normalized)"
	p.Y.Label.Text = "1 - y (normalized)"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	groups := make(map[gaze.Direction]plotter.XYs)
	total := 0
	for _, r := range rows {
		if r.Segment != segment || r.Gaze == nil {
			continue
		}
		// screen y grows downwards
		groups[r.Direction] = append(groups[r.Direction], plotter.XY{X: r.Gaze.X, Y: 1 - r.Gaze.Y})
		total++
	}
	if total == 0 {
		return false, nil
	}

	colors := generateColors(len(gaze.Directions))
	order := append([]gaze.Direction{gaze.DirectionNone}, gaze.Directions...)
	for _, d := range order {
		pts := groups[d]
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return false, err
		}
		s.GlyphStyle.Radius = vg.Points(1.5)
		label := string(d)
		if d == gaze.DirectionNone {
			s.GlyphStyle.Color = color.Gray{Y: 170}
			label = "no trial"
		} else {
			s.GlyphStyle.Color = colors[gaze.DirectionRank(d)]
		}
		p.Add(s)
		p.Legend.Add(label, s)
	}
	p.Legend.Top = true
	return true, render(w, p)
}

func render(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func segmentTitle(segment string) string {
	if segment == "" {
		return "outside segments"
	}
	return segment
}

// generateColors spreads n colours evenly around the hue wheel.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255), uint8(hueToRGB(p, q, h) * 255), uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
