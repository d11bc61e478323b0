package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"github.com/banshee-data/gaze.report/internal/timeutil"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("analysis run not found")

// Run is the metadata row of one persisted analysis.
type Run struct {
	RunID     string          `json:"run_id"`
	CreatedAt int64           `json:"created_at"`
	Source    string          `json:"source"`
	Version   string          `json:"tool_version"`
	Params    json.RawMessage `json:"params_json,omitempty"`
	Segments  []gaze.Segment  `json:"segments"`
	Stats     pipeline.Stats  `json:"stats"`
}

// RunStore persists analysis runs and their results.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore. A nil clock uses the wall clock.
func NewRunStore(db *sql.DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// SaveRun persists run together with every table of res in one
// transaction. An empty RunID gets a UUID and a zero CreatedAt is stamped
// from the store clock. Segments and Stats are taken from res.
func (s *RunStore) SaveRun(ctx context.Context, run *Run, res *pipeline.Result) error {
	if res == nil {
		return fmt.Errorf("save run: nil result")
	}
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	run.Segments = res.Segments
	run.Stats = res.Stats

	return retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		if err := insertTrials(ctx, tx, run.RunID, res.Trials); err != nil {
			return err
		}
		if err := insertSummaries(ctx, tx, run.RunID, res.Summary); err != nil {
			return err
		}
		if err := insertDiagnostics(ctx, tx, run.RunID, res.Diagnostics); err != nil {
			return err
		}
		if err := insertSequences(ctx, tx, run.RunID, res.Sequences); err != nil {
			return err
		}
		if err := insertTrends(ctx, tx, run.RunID, res.Trends); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func insertRun(ctx context.Context, tx *sql.Tx, run *Run) error {
	segments, err := json.Marshal(run.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	var params interface{}
	if len(run.Params) > 0 {
		params = string(run.Params)
	}
	st := run.Stats
	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_id, created_at, source, tool_version, params_json, segments_json,
			frames, rectified, no_surface, degenerate, with_gaze, with_target,
			trial_count, truncated, sequence_mismatches
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt, run.Source, run.Version, params, string(segments),
		st.Frames, st.Rectified, st.NoSurface, st.Degenerate, st.WithGaze, st.WithTarget,
		st.Trials, st.Truncated, st.SequenceFails,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

const runColumns = `run_id, created_at, source, tool_version, params_json, segments_json,
		       frames, rectified, no_surface, degenerate, with_gaze, with_target,
		       trial_count, truncated, sequence_mismatches`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var params, segments sql.NullString
	st := &r.Stats
	err := row.Scan(
		&r.RunID, &r.CreatedAt, &r.Source, &r.Version, &params, &segments,
		&st.Frames, &st.Rectified, &st.NoSurface, &st.Degenerate, &st.WithGaze, &st.WithTarget,
		&st.Trials, &st.Truncated, &st.SequenceFails,
	)
	if err != nil {
		return nil, err
	}
	if params.Valid {
		r.Params = json.RawMessage(params.String)
	}
	if segments.Valid && segments.String != "" {
		if err := json.Unmarshal([]byte(segments.String), &r.Segments); err != nil {
			return nil, fmt.Errorf("decode segments of run %s: %w", r.RunID, err)
		}
	}
	return &r, nil
}

// GetRun returns a run's metadata row.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs newest first. A limit of zero or less returns all.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs ORDER BY created_at DESC, run_id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run; its result rows go with it.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

// exists distinguishes an unknown run from one with no rows of a kind.
func (s *RunStore) exists(ctx context.Context, runID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM analysis_runs WHERE run_id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}
