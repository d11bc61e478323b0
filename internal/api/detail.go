package api

import (
	"context"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l5metrics"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/banshee-data/gaze.report/internal/gaze/storage/sqlite"
)

// RunDetail is one stored run with everything it produced.
type RunDetail struct {
	Run         *sqlite.Run               `json:"run"`
	Trials      []TrialRow                `json:"trials"`
	Summary     l6summary.Report          `json:"summary"`
	Sequences   []l6summary.SequenceCheck `json:"sequences"`
	Trends      []l6summary.PupilTrend    `json:"pupil_trends"`
	Diagnostics []gaze.Diagnostic         `json:"diagnostics"`
}

// TrialRow flattens a trial and nests its metrics.
type TrialRow struct {
	gaze.Trial
	Metrics l5metrics.TrialMetrics `json:"metrics"`
}

func trialRows(results []l6summary.Result) []TrialRow {
	rows := make([]TrialRow, len(results))
	for i, r := range results {
		rows[i] = TrialRow{Trial: r.Trial, Metrics: r.Metrics}
	}
	return rows
}

// LoadRunDetail reads every table of a stored run.
func LoadRunDetail(ctx context.Context, store *sqlite.RunStore, runID string) (*RunDetail, error) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	d := &RunDetail{Run: run}

	results, err := store.GetTrials(ctx, runID)
	if err != nil {
		return nil, err
	}
	d.Trials = trialRows(results)
	if d.Summary, err = store.GetSummaries(ctx, runID); err != nil {
		return nil, err
	}
	if d.Sequences, err = store.GetSequences(ctx, runID); err != nil {
		return nil, err
	}
	if d.Trends, err = store.GetTrends(ctx, runID); err != nil {
		return nil, err
	}
	if d.Diagnostics, err = store.GetDiagnostics(ctx, runID); err != nil {
		return nil, err
	}
	return d, nil
}
