package pipeline

import (
	"context"
	"testing"

	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	monitoring.SetLogger(nil)
}

func scenario() testutil.Session {
	return testutil.DefaultSession(
		testutil.Phase{Zone: gaze.ZoneCenter, Frames: 50},
		testutil.Phase{Zone: gaze.ZoneRight, Frames: 20},
		testutil.Phase{Zone: gaze.ZoneCenter, Frames: 20},
		testutil.Phase{Zone: gaze.ZoneUp, Frames: 20},
		testutil.Phase{Zone: gaze.ZoneCenter, Frames: 190},
	)
}

func TestAnalyze_Scenario300Frames(t *testing.T) {
	t.Parallel()

	s := scenario()
	require.Equal(t, 300, s.TotalFrames())
	segments := []gaze.Segment{{Name: "fast", StartFrame: 0, EndFrame: 299}}

	res, err := Analyze(context.Background(), s.Frames(), segments, DefaultOptions())
	require.NoError(t, err)

	gotTrials := make([]gaze.Trial, len(res.Trials))
	for i, r := range res.Trials {
		gotTrials[i] = r.Trial
	}
	want := []gaze.Trial{
		{ID: 1, Direction: gaze.DirectionRight, StartFrame: 50, EndFrame: 70, Segment: "fast"},
		{ID: 2, Direction: gaze.DirectionUp, StartFrame: 90, EndFrame: 110, Segment: "fast"},
	}
	if diff := cmp.Diff(want, gotTrials); diff != "" {
		t.Errorf("trials mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, res.Summary.BySegment, 1)
	assert.Equal(t, "fast", res.Summary.BySegment[0].Segment)
	assert.Equal(t, 2, res.Summary.BySegment[0].TrialCount)

	require.Len(t, res.Summary.BySegmentDirection, 2)
	right, ok := l6summary.Find(res.Summary.BySegmentDirection, "fast", gaze.DirectionRight)
	require.True(t, ok)
	up, ok := l6summary.Find(res.Summary.BySegmentDirection, "fast", gaze.DirectionUp)
	require.True(t, ok)
	assert.Equal(t, 1, right.TrialCount)
	assert.Equal(t, 1, up.TrialCount)
	assert.InDelta(t, 100.0, right.GazeInBoxPerc.Mean, 1e-9)
	assert.InDelta(t, 100.0, up.GazeInBoxPerc.Mean, 1e-9)
	// the only movement inside the right trial is the return to centre
	assert.InDelta(t, 0.35/21, right.TargetSpeed.Mean, 1e-9)
	assert.InDelta(t, 100.0, right.DirectionalSuccessPerc.Mean, 1e-9)

	// labels on frames
	assert.Equal(t, 0, res.Frames[49].TrialID)
	assert.Equal(t, 1, res.Frames[50].TrialID)
	assert.Equal(t, 1, res.Frames[70].TrialID)
	assert.Equal(t, 0, res.Frames[71].TrialID)
	assert.Equal(t, gaze.DirectionUp, res.Frames[110].Direction)

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 300, res.Stats.Rectified)
	assert.Equal(t, 2, res.Stats.Trials)

	require.Len(t, res.Trends, 2)
	assert.Len(t, res.Trends[0].Mean, 101)
	assert.InDelta(t, 3.5, res.Trends[0].Mean[50], 1e-9)
}

func TestAnalyze_PerfectGazeMetrics(t *testing.T) {
	t.Parallel()

	res, err := Analyze(context.Background(), scenario().Frames(), nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Trials, 2)

	m := res.Trials[0].Metrics
	assert.Equal(t, 21, m.Frames)
	assert.Equal(t, 21, m.ValidFrames)
	assert.True(t, *m.ExcursionSuccess)
	assert.True(t, *m.DirectionalExcursionSuccess)
	assert.Equal(t, 1.0, *m.DirectionalExcursionReached)
	assert.Equal(t, 0.0, *m.LatencySeconds)
	assert.InDelta(t, 3.5, *m.MeanPupilDiameter, 1e-12)

	// no segments: trials stay unassigned and only the direction grouping exists
	assert.Equal(t, "", res.Trials[0].Trial.Segment)
	assert.Len(t, res.Summary.ByDirection, 2)
	assert.Empty(t, res.Summary.BySegment)
}

func TestAnalyze_OffsetGazeFailsExcursion(t *testing.T) {
	t.Parallel()

	s := scenario()
	s.GazeOffset = gaze.Point{X: 0, Y: 0.2}
	res, err := Analyze(context.Background(), s.Frames(), nil, DefaultOptions())
	require.NoError(t, err)

	for _, r := range res.Trials {
		assert.Equal(t, 0.0, *r.Metrics.GazeInBoxFraction, "trial %d", r.Trial.ID)
		assert.False(t, *r.Metrics.ExcursionSuccess)
		assert.Nil(t, r.Metrics.LatencySeconds)
	}
	// gaze 0.2 below the up target never reaches the threshold line
	assert.False(t, *res.Trials[1].Metrics.DirectionalExcursionSuccess)
}

func TestAnalyze_NoSurfaceNullsGazeInBox(t *testing.T) {
	t.Parallel()

	s := scenario()
	s.NoSurface = true
	res, err := Analyze(context.Background(), s.Frames(), nil, DefaultOptions())
	require.NoError(t, err)

	// zones come from the normalized target, so trials are still found
	require.Len(t, res.Trials, 2)
	assert.Nil(t, res.Trials[0].Metrics.GazeInBoxFraction)
	assert.Equal(t, 300, res.Stats.NoSurface)
	assert.Positive(t, gaze.CountKind(res.Diagnostics, gaze.KindInsufficientTrialData))
	_, ok := l6summary.Find(res.Summary.ByDirection, "", gaze.DirectionRight)
	assert.True(t, ok)
}

func TestAnalyze_DegenerateFrameReported(t *testing.T) {
	t.Parallel()

	frames := scenario().Frames()
	frames[60].Corners = &gaze.Corners{}
	res, err := Analyze(context.Background(), frames, nil, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.Degenerate)
	assert.Equal(t, 1, gaze.CountKind(res.Diagnostics, gaze.KindDegenerateSurfaceGeometry))
	assert.Nil(t, res.Frames[60].Surface)
	assert.Nil(t, res.Frames[60].GazeInBox)
	assert.Equal(t, 20, res.Trials[0].Metrics.ValidFrames)
}

func TestAnalyze_GazePixelRectified(t *testing.T) {
	t.Parallel()

	frames := scenario().Frames()
	for i := range frames {
		g := frames[i].Gaze
		// full-frame surface: rectified size 1279x719 maps pixel p to p*(w-1)/w
		frames[i].GazePixel = &gaze.Point{X: g.X * 1279 * 1279 / 1278, Y: g.Y * 719 * 719 / 718}
		frames[i].Gaze = nil
	}
	res, err := Analyze(context.Background(), frames, nil, DefaultOptions())
	require.NoError(t, err)

	got := res.Frames[55].Gaze
	require.NotNil(t, got)
	assert.InDelta(t, 0.85, got.X, 1e-6)
	assert.InDelta(t, 0.5, got.Y, 1e-6)
	assert.True(t, *res.Trials[0].Metrics.ExcursionSuccess)
}

func TestAnalyze_SpanningTrialAndSequences(t *testing.T) {
	t.Parallel()

	segments := []gaze.Segment{
		{Name: "fast", StartFrame: 0, EndFrame: 60},
		{Name: "slow", StartFrame: 61, EndFrame: 299},
	}
	opts := DefaultOptions()
	opts.ExpectedSequences = map[string][]gaze.Direction{
		"fast": {gaze.DirectionRight, gaze.DirectionLeft},
		"slow": {gaze.DirectionDown},
	}
	res, err := Analyze(context.Background(), scenario().Frames(), segments, opts)
	require.NoError(t, err)

	first := res.Trials[0]
	assert.True(t, first.Trial.SpansSegmentBoundary)
	assert.True(t, first.Trial.Truncated)
	assert.Equal(t, "fast", first.Trial.Segment)
	assert.Equal(t, 60, first.Trial.EndFrame)
	assert.Equal(t, 11, first.Metrics.Frames)
	assert.Equal(t, 1, res.Stats.Truncated)
	assert.Equal(t, 1, gaze.CountKind(res.Diagnostics, gaze.KindTrialSpansSegmentBoundary))

	// frames of slow still looking right belong to no trial
	assert.Equal(t, 1, res.Frames[60].TrialID)
	assert.Equal(t, 0, res.Frames[65].TrialID)
	assert.Equal(t, "slow", res.Frames[65].Segment)
	assert.Equal(t, 2, res.Trials[1].Trial.ID)
	assert.Equal(t, "slow", res.Trials[1].Trial.Segment)

	require.Len(t, res.Sequences, 2)
	assert.True(t, res.Sequences[0].Match, "fast prefix [right] of [right left]")
	assert.False(t, res.Sequences[1].Match, "slow [up] vs [down]")
	assert.Equal(t, 1, gaze.CountKind(res.Diagnostics, gaze.KindSequenceMismatch))
	assert.Equal(t, 1, res.Stats.SequenceFails)
}

func TestAnalyze_TrialOpenAtSegmentEndIsTruncated(t *testing.T) {
	t.Parallel()

	s := testutil.DefaultSession(
		testutil.Phase{Zone: gaze.ZoneCenter, Frames: 10},
		testutil.Phase{Zone: gaze.ZoneRight, Frames: 20},
		testutil.Phase{Zone: gaze.ZoneCenter, Frames: 10},
	)
	segments := []gaze.Segment{
		{Name: "fast", StartFrame: 0, EndFrame: 19},
		{Name: "slow", StartFrame: 20, EndFrame: 39},
	}
	res, err := Analyze(context.Background(), s.Frames(), segments, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Trials, 1)

	want := gaze.Trial{
		ID:                   1,
		Direction:            gaze.DirectionRight,
		StartFrame:           10,
		EndFrame:             19,
		Segment:              "fast",
		Truncated:            true,
		SpansSegmentBoundary: true,
	}
	if diff := cmp.Diff(want, res.Trials[0].Trial); diff != "" {
		t.Errorf("trial mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 10, res.Trials[0].Metrics.Frames)
	assert.Equal(t, 1, res.Stats.Truncated)

	assert.Equal(t, 1, res.Frames[19].TrialID)
	assert.Equal(t, 0, res.Frames[25].TrialID)
	assert.Equal(t, "slow", res.Frames[25].Segment)
	assert.Equal(t, 0, res.Frames[30].TrialID)
}

func TestAnalyze_TruncatedTrial(t *testing.T) {
	t.Parallel()

	s := testutil.DefaultSession(
		testutil.Phase{Zone: gaze.ZoneCenter, Frames: 5},
		testutil.Phase{Zone: gaze.ZoneDown, Frames: 5},
	)
	res, err := Analyze(context.Background(), s.Frames(), nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Trials, 1)
	assert.True(t, res.Trials[0].Trial.Truncated)
	assert.Equal(t, 9, res.Trials[0].Trial.EndFrame)
	assert.Equal(t, 1, res.Stats.Truncated)
}

func TestAnalyze_StructuralErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Analyze(ctx, nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, gaze.ErrEmptyAlignmentInput)

	frames := scenario().Frames()
	frames[1].Frame = 0
	_, err = Analyze(ctx, frames, nil, DefaultOptions())
	assert.ErrorIs(t, err, gaze.ErrInvalidInput)

	overlap := []gaze.Segment{{Name: "a", StartFrame: 0, EndFrame: 100}, {Name: "b", StartFrame: 100, EndFrame: 200}}
	_, err = Analyze(ctx, scenario().Frames(), overlap, DefaultOptions())
	assert.ErrorIs(t, err, gaze.ErrInvalidInput)

	bad := DefaultOptions()
	bad.Metrics.SuccessThreshold = 0
	_, err = Analyze(ctx, scenario().Frames(), nil, bad)
	assert.ErrorIs(t, err, gaze.ErrInvalidInput)
}

func TestAnalyze_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, scenario().Frames(), nil, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultAnalysisConfig()
	cfg.ExpectedSequences = map[string][]string{"fast": {"right", "left"}}
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions().Metrics, opts.Metrics)
	assert.Equal(t, []gaze.Direction{gaze.DirectionRight, gaze.DirectionLeft}, opts.ExpectedSequences["fast"])

	cfg.ExpectedSequences = map[string][]string{"fast": {"sideways"}}
	_, err = OptionsFromConfig(cfg)
	assert.ErrorIs(t, err, gaze.ErrInvalidInput)
}
