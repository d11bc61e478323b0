package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
)

// Groupings stored in group_summaries.grouping.
const (
	GroupingDirection        = "direction"
	GroupingSegmentDirection = "segment_direction"
	GroupingSegment          = "segment"
)

func insertTrials(ctx context.Context, tx *sql.Tx, runID string, results []l6summary.Result) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials (
			run_id, trial_id, segment_name, direction, start_frame, end_frame,
			truncated, spans_segment_boundary, frames, valid_frames, in_box_frames,
			gaze_in_box_fraction, excursion_success, directional_excursion_success,
			directional_excursion_reached, mean_gaze_speed, mean_target_speed,
			mean_pupil_diameter, latency_s
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trial insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		t, m := r.Trial, r.Metrics
		_, err := stmt.ExecContext(ctx,
			runID, t.ID, t.Segment, string(t.Direction), t.StartFrame, t.EndFrame,
			t.Truncated, t.SpansSegmentBoundary, m.Frames, m.ValidFrames, m.InBoxFrames,
			nullFloat(m.GazeInBoxFraction), nullBool(m.ExcursionSuccess), nullBool(m.DirectionalExcursionSuccess),
			nullFloat(m.DirectionalExcursionReached), nullFloat(m.MeanGazeSpeed), nullFloat(m.MeanTargetSpeed),
			nullFloat(m.MeanPupilDiameter), nullFloat(m.LatencySeconds),
		)
		if err != nil {
			return fmt.Errorf("insert trial %d: %w", t.ID, err)
		}
	}
	return nil
}

// GetTrials returns a run's trials with their metrics in trial order.
func (s *RunStore) GetTrials(ctx context.Context, runID string) ([]l6summary.Result, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT trial_id, segment_name, direction, start_frame, end_frame,
		       truncated, spans_segment_boundary, frames, valid_frames, in_box_frames,
		       gaze_in_box_fraction, excursion_success, directional_excursion_success,
		       directional_excursion_reached, mean_gaze_speed, mean_target_speed,
		       mean_pupil_diameter, latency_s
		FROM trials
		WHERE run_id = ?
		ORDER BY trial_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []l6summary.Result
	for rows.Next() {
		var (
			r                             l6summary.Result
			dir                           string
			inBox, reached                sql.NullFloat64
			gazeSpeed, targetSpeed, pupil sql.NullFloat64
			latency                       sql.NullFloat64
			excursion, directionalSuccess sql.NullBool
		)
		t, m := &r.Trial, &r.Metrics
		err := rows.Scan(
			&t.ID, &t.Segment, &dir, &t.StartFrame, &t.EndFrame,
			&t.Truncated, &t.SpansSegmentBoundary, &m.Frames, &m.ValidFrames, &m.InBoxFrames,
			&inBox, &excursion, &directionalSuccess,
			&reached, &gazeSpeed, &targetSpeed,
			&pupil, &latency,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trial row: %w", err)
		}
		t.Direction = gaze.Direction(dir)
		m.TrialID = t.ID
		m.GazeInBoxFraction = floatPtr(inBox)
		m.ExcursionSuccess = boolPtr(excursion)
		m.DirectionalExcursionSuccess = boolPtr(directionalSuccess)
		m.DirectionalExcursionReached = floatPtr(reached)
		m.MeanGazeSpeed = floatPtr(gazeSpeed)
		m.MeanTargetSpeed = floatPtr(targetSpeed)
		m.MeanPupilDiameter = floatPtr(pupil)
		m.LatencySeconds = floatPtr(latency)
		out = append(out, r)
	}
	return out, rows.Err()
}

func insertSummaries(ctx context.Context, tx *sql.Tx, runID string, rep l6summary.Report) error {
	cols := append([]string{"run_id", "grouping", "segment_name", "direction", "trial_count"}, statColumnNames()...)
	cols = append(cols, "median_latency_s")
	query := `INSERT INTO group_summaries (` + joinColumns(cols) + `) VALUES (` + placeholders(len(cols)) + `)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare summary insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range groupings(rep) {
		for _, sum := range g.summaries {
			args := []interface{}{runID, g.name, sum.Segment, string(sum.Direction), sum.TrialCount}
			for _, c := range statColumns {
				if st := *c.field(&sum); st != nil {
					args = append(args, st.Mean, st.Count)
				} else {
					args = append(args, nil, nil)
				}
			}
			args = append(args, nullFloat(sum.MedianLatency))
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s summary %q/%q: %w", g.name, sum.Segment, sum.Direction, err)
			}
		}
	}
	return nil
}

type grouping struct {
	name      string
	summaries []l6summary.Summary
}

func groupings(rep l6summary.Report) []grouping {
	return []grouping{
		{GroupingDirection, rep.ByDirection},
		{GroupingSegmentDirection, rep.BySegmentDirection},
		{GroupingSegment, rep.BySegment},
	}
}

// GetSummaries rebuilds a run's aggregate report.
func (s *RunStore) GetSummaries(ctx context.Context, runID string) (l6summary.Report, error) {
	var rep l6summary.Report
	if err := s.exists(ctx, runID); err != nil {
		return rep, err
	}
	cols := append([]string{"grouping", "segment_name", "direction", "trial_count"}, statColumnNames()...)
	cols = append(cols, "median_latency_s")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+joinColumns(cols)+` FROM group_summaries WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return rep, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sum l6summary.Summary
		var group, dir string
		var median sql.NullFloat64
		means := make([]sql.NullFloat64, len(statColumns))
		counts := make([]sql.NullInt64, len(statColumns))
		dest := []interface{}{&group, &sum.Segment, &dir, &sum.TrialCount}
		for i := range statColumns {
			dest = append(dest, &means[i], &counts[i])
		}
		dest = append(dest, &median)
		if err := rows.Scan(dest...); err != nil {
			return rep, fmt.Errorf("scan summary row: %w", err)
		}
		sum.Direction = gaze.Direction(dir)
		for i, c := range statColumns {
			if means[i].Valid {
				*c.field(&sum) = &l6summary.Stat{Mean: means[i].Float64, Count: int(counts[i].Int64)}
			}
		}
		sum.MedianLatency = floatPtr(median)

		switch group {
		case GroupingDirection:
			rep.ByDirection = append(rep.ByDirection, sum)
		case GroupingSegmentDirection:
			rep.BySegmentDirection = append(rep.BySegmentDirection, sum)
		case GroupingSegment:
			rep.BySegment = append(rep.BySegment, sum)
		default:
			return rep, fmt.Errorf("unknown summary grouping %q", group)
		}
	}
	return rep, rows.Err()
}

func insertDiagnostics(ctx context.Context, tx *sql.Tx, runID string, diags []gaze.Diagnostic) error {
	for i, d := range diags {
		var trialID interface{}
		if d.TrialID > 0 {
			trialID = d.TrialID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, seq, kind, frame, trial_id, segment_name, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, string(d.Kind), d.Frame, trialID, d.Segment, d.Message,
		)
		if err != nil {
			return fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}
	return nil
}

// GetDiagnostics returns a run's diagnostics in the order they were raised.
func (s *RunStore) GetDiagnostics(ctx context.Context, runID string) ([]gaze.Diagnostic, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, frame, trial_id, segment_name, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []gaze.Diagnostic
	for rows.Next() {
		var d gaze.Diagnostic
		var kind string
		var trialID sql.NullInt64
		if err := rows.Scan(&kind, &d.Frame, &trialID, &d.Segment, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic row: %w", err)
		}
		d.Kind = gaze.Kind(kind)
		d.TrialID = int(trialID.Int64)
		out = append(out, d)
	}
	return out, rows.Err()
}

func insertSequences(ctx context.Context, tx *sql.Tx, runID string, checks []l6summary.SequenceCheck) error {
	for _, c := range checks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sequence_checks (
				run_id, segment_name, expected, detected, match, compared, length_mismatch, note
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.Segment, joinDirections(c.Expected), joinDirections(c.Detected),
			c.Match, c.Compared, c.LengthMismatch, c.Note,
		)
		if err != nil {
			return fmt.Errorf("insert sequence check %q: %w", c.Segment, err)
		}
	}
	return nil
}

// GetSequences returns a run's sequence checks.
func (s *RunStore) GetSequences(ctx context.Context, runID string) ([]l6summary.SequenceCheck, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_name, expected, detected, match, compared, length_mismatch, note
		FROM sequence_checks
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sequence checks: %w", err)
	}
	defer rows.Close()

	var out []l6summary.SequenceCheck
	for rows.Next() {
		var c l6summary.SequenceCheck
		var expected, detected string
		if err := rows.Scan(&c.Segment, &expected, &detected, &c.Match, &c.Compared, &c.LengthMismatch, &c.Note); err != nil {
			return nil, fmt.Errorf("scan sequence check row: %w", err)
		}
		c.Expected = splitDirections(expected)
		c.Detected = splitDirections(detected)
		out = append(out, c)
	}
	return out, rows.Err()
}

// trendSeries is the JSON payload of one pupil_trends row.
type trendSeries struct {
	Percent []float64 `json:"percent"`
	Mean    []float64 `json:"mean"`
	StdDev  []float64 `json:"std_dev"`
}

func insertTrends(ctx context.Context, tx *sql.Tx, runID string, trends []l6summary.PupilTrend) error {
	for _, tr := range trends {
		payload, err := json.Marshal(trendSeries{Percent: tr.Percent, Mean: tr.Mean, StdDev: tr.StdDev})
		if err != nil {
			return fmt.Errorf("marshal trend %q/%s: %w", tr.Segment, tr.Direction, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pupil_trends (run_id, segment_name, direction, trials, trend_json)
			VALUES (?, ?, ?, ?, ?)`,
			runID, tr.Segment, string(tr.Direction), tr.Trials, string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert trend %q/%s: %w", tr.Segment, tr.Direction, err)
		}
	}
	return nil
}

// GetTrends returns a run's pupil trends.
func (s *RunStore) GetTrends(ctx context.Context, runID string) ([]l6summary.PupilTrend, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_name, direction, trials, trend_json
		FROM pupil_trends
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var out []l6summary.PupilTrend
	for rows.Next() {
		var tr l6summary.PupilTrend
		var dir, payload string
		if err := rows.Scan(&tr.Segment, &dir, &tr.Trials, &payload); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		var series trendSeries
		if err := json.Unmarshal([]byte(payload), &series); err != nil {
			return nil, fmt.Errorf("decode trend %q/%s: %w", tr.Segment, dir, err)
		}
		tr.Direction = gaze.Direction(dir)
		tr.Percent, tr.Mean, tr.StdDev = series.Percent, series.Mean, series.StdDev
		out = append(out, tr)
	}
	return out, rows.Err()
}
