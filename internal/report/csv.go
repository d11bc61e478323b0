package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l5metrics"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
)

var frameHeader = []string{
	"frame", "timestamp_ns", "segment_name",
	"ball_center_x_norm", "ball_center_y_norm", "ball_w_norm", "ball_h_norm",
	"gaze_x_norm", "gaze_y_norm", "pupil_diameter_mm",
	"surface_width", "surface_height", "zone", "trial_id", "direction",
	"target_speed", "gaze_speed", "gaze_in_box",
	"trial_gaze_in_box_fraction", "excursion_success",
	"directional_excursion_success", "directional_excursion_reached", "latency_s",
}

// WriteFrames writes the enriched per-frame table. Per-trial metrics are
// repeated on every frame of the trial and empty elsewhere.
func WriteFrames(w io.Writer, rows []pipeline.FrameRow, trials []l6summary.Result) error {
	byID := make(map[int]l5metrics.TrialMetrics, len(trials))
	for _, r := range trials {
		byID[r.Trial.ID] = r.Metrics
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(frameHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Frame), strconv.FormatInt(r.TimestampNs, 10), r.Segment,
		}
		rec = append(rec, pointCells(r.TargetCenter)...)
		if r.TargetSize != nil {
			rec = append(rec, formatFloat(r.TargetSize.W), formatFloat(r.TargetSize.H))
		} else {
			rec = append(rec, "", "")
		}
		rec = append(rec, pointCells(r.Gaze)...)
		rec = append(rec, formatOptFloat(r.PupilDiameter))
		if r.Surface != nil {
			rec = append(rec, strconv.Itoa(r.Surface.Width), strconv.Itoa(r.Surface.Height))
		} else {
			rec = append(rec, "", "")
		}
		rec = append(rec, string(r.Zone))
		if r.InTrial() {
			rec = append(rec, strconv.Itoa(r.TrialID), string(r.Direction))
		} else {
			rec = append(rec, "", "")
		}
		rec = append(rec,
			formatOptFloat(r.TargetSpeed), formatOptFloat(r.GazeSpeed), formatOptBool(r.GazeInBox))

		if m, ok := byID[r.TrialID]; ok && r.InTrial() {
			rec = append(rec,
				formatOptFloat(m.GazeInBoxFraction),
				formatOptBool(m.ExcursionSuccess),
				formatOptBool(m.DirectionalExcursionSuccess),
				formatOptFloat(m.DirectionalExcursionReached),
				formatOptFloat(m.LatencySeconds))
		} else {
			rec = append(rec, "", "", "", "", "")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var trialHeader = []string{
	"trial_id", "segment_name", "direction", "start_frame", "end_frame",
	"trial_truncated", "spans_segment_boundary",
	"frames", "valid_frames", "in_box_frames",
	"gaze_in_box_fraction", "excursion_success",
	"directional_excursion_success", "directional_excursion_reached",
	"mean_gaze_speed", "mean_target_speed", "mean_pupil_diameter", "latency_s",
}

// WriteTrials writes one row per trial.
func WriteTrials(w io.Writer, trials []l6summary.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trialHeader); err != nil {
		return err
	}
	for _, r := range trials {
		t, m := r.Trial, r.Metrics
		rec := []string{
			strconv.Itoa(t.ID), t.Segment, string(t.Direction),
			strconv.Itoa(t.StartFrame), strconv.Itoa(t.EndFrame),
			strconv.FormatBool(t.Truncated), strconv.FormatBool(t.SpansSegmentBoundary),
			strconv.Itoa(m.Frames), strconv.Itoa(m.ValidFrames), strconv.Itoa(m.InBoxFrames),
			formatOptFloat(m.GazeInBoxFraction), formatOptBool(m.ExcursionSuccess),
			formatOptBool(m.DirectionalExcursionSuccess), formatOptFloat(m.DirectionalExcursionReached),
			formatOptFloat(m.MeanGazeSpeed), formatOptFloat(m.MeanTargetSpeed),
			formatOptFloat(m.MeanPupilDiameter), formatOptFloat(m.LatencySeconds),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var summaryHeader = []string{
	"grouping", "segment_name", "direction", "trial_count",
	"gaze_in_box_perc", "excursion_perc_frames", "excursion_success_perc",
	"directional_excursion_success_perc", "avg_directional_excursion_reached",
	"avg_gaze_speed", "avg_target_speed", "avg_pupil_diameter",
	"avg_latency_s", "median_latency_s",
}

// WriteSummaries writes all three groupings of rep into one table,
// distinguished by the grouping column.
func WriteSummaries(w io.Writer, rep l6summary.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	groups := []struct {
		name string
		rows []l6summary.Summary
	}{
		{"direction", rep.ByDirection},
		{"segment_direction", rep.BySegmentDirection},
		{"segment", rep.BySegment},
	}
	for _, g := range groups {
		for _, s := range g.rows {
			rec := []string{
				g.name, s.Segment, string(s.Direction), strconv.Itoa(s.TrialCount),
				formatStat(s.GazeInBoxPerc), formatStat(s.ExcursionPercFrames),
				formatStat(s.ExcursionSuccessPerc), formatStat(s.DirectionalSuccessPerc),
				formatStat(s.DirectionalReached), formatStat(s.GazeSpeed),
				formatStat(s.TargetSpeed), formatStat(s.PupilDiameter),
				formatStat(s.Latency), formatOptFloat(s.MedianLatency),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSequences writes the sequence validation report.
func WriteSequences(w io.Writer, checks []l6summary.SequenceCheck) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"segment_name", "expected", "detected", "match", "compared", "length_mismatch", "note"}); err != nil {
		return err
	}
	for _, c := range checks {
		rec := []string{
			c.Segment, joinDirections(c.Expected), joinDirections(c.Detected),
			strconv.FormatBool(c.Match), strconv.Itoa(c.Compared),
			strconv.FormatBool(c.LengthMismatch), c.Note,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDiagnostics writes one row per diagnostic.
func WriteDiagnostics(w io.Writer, diags []gaze.Diagnostic) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"kind", "frame", "trial_id", "segment_name", "message"}); err != nil {
		return err
	}
	for _, d := range diags {
		rec := []string{string(d.Kind), strconv.Itoa(d.Frame), "", d.Segment, d.Message}
		if d.TrialID > 0 {
			rec[2] = strconv.Itoa(d.TrialID)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinDirections(ds []gaze.Direction) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, " ")
}

func pointCells(p *gaze.Point) []string {
	if p == nil {
		return []string{"", ""}
	}
	return []string{formatFloat(p.X), formatFloat(p.Y)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatStat(s *l6summary.Stat) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%.6g", s.Mean)
}
