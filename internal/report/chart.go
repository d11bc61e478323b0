package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SummaryPage renders one bar chart per segment (plus one across all
// segments) comparing the percentage metrics of each direction.
func SummaryPage(w io.Writer, rep l6summary.Report, title string) error {
	page := components.NewPage()
	page.SetPageTitle(title)

	page.AddCharts(summaryBar("All segments", rep.ByDirection))

	var segments []string
	seen := map[string]bool{}
	for _, s := range rep.BySegmentDirection {
		if !seen[s.Segment] {
			seen[s.Segment] = true
			segments = append(segments, s.Segment)
		}
	}
	for _, seg := range segments {
		var rows []l6summary.Summary
		for _, s := range rep.BySegmentDirection {
			if s.Segment == seg {
				rows = append(rows, s)
			}
		}
		page.AddCharts(summaryBar(fmt.Sprintf("Segment %s", segmentTitle(seg)), rows))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render summary page: %w", err)
	}
	return nil
}

func summaryBar(title string, rows []l6summary.Summary) *charts.Bar {
	x := make([]string, 0, len(gaze.Directions))
	var inBox, success, dirSuccess []opts.BarData
	for _, d := range gaze.Directions {
		s, ok := l6summary.Find(rows, rowSegment(rows), d)
		if !ok {
			continue
		}
		x = append(x, fmt.Sprintf("%s (n=%d)", d, s.TrialCount))
		inBox = append(inBox, barValue(s.GazeInBoxPerc))
		success = append(success, barValue(s.ExcursionSuccessPerc))
		dirSuccess = append(dirSuccess, barValue(s.DirectionalSuccessPerc))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Min: 0, Max: 100}),
	)
	label := charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})
	bar.SetXAxis(x).
		AddSeries("Gaze in box %", inBox, label).
		AddSeries("Excursion success %", success, label).
		AddSeries("Directional success %", dirSuccess, label)
	return bar
}

// rowSegment returns the shared segment of rows ("" for direction-only
// groupings).
func rowSegment(rows []l6summary.Summary) string {
	if len(rows) == 0 {
		return ""
	}
	return rows[0].Segment
}

// barValue rounds to one decimal; "-" leaves a gap for missing data.
func barValue(s *l6summary.Stat) opts.BarData {
	if s == nil {
		return opts.BarData{Value: "-"}
	}
	return opts.BarData{Value: fmt.Sprintf("%.1f", s.Mean)}
}
