package l5metrics

import (
	"math"
	"testing"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l2surface"
	"github.com/banshee-data/gaze.report/internal/gaze/l4trials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = &l2surface.OutputSize{Width: 1000, Height: 1000}

func pt(x, y float64) *gaze.Point { return &gaze.Point{X: x, Y: y} }

func inBoxSeries(n, in int) []FrameMetrics {
	fm := make([]FrameMetrics, n)
	for i := range fm {
		fm[i].GazeInBox = gaze.Ptr(i < in)
	}
	return fm
}

func numbered(n, start int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i].Frame = start + i
	}
	return frames
}

func TestGazeInBox(t *testing.T) {
	t.Parallel()

	base := Frame{
		TargetCenter: pt(0.5, 0.5),
		TargetSize:   &gaze.Size{W: 0.1, H: 0.1},
		Surface:      square,
	}
	tests := []struct {
		name string
		gaze *gaze.Point
		want *bool
	}{
		{"centre", pt(0.5, 0.5), gaze.Ptr(true)},
		{"on padded right edge", pt(0.5625, 0.5), gaze.Ptr(true)},
		{"on padded top edge", pt(0.5, 0.4375), gaze.Ptr(true)},
		{"just outside padded edge", pt(0.5626, 0.5), gaze.Ptr(false)},
		{"inside padding only", pt(0.56, 0.44), gaze.Ptr(true)},
		{"far away", pt(0.9, 0.9), gaze.Ptr(false)},
		{"no gaze", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := base
			f.Gaze = tt.gaze
			assert.Equal(t, tt.want, GazeInBox(f, 1.25))
		})
	}
}

func TestGazeInBox_MissingInputs(t *testing.T) {
	t.Parallel()

	full := Frame{TargetCenter: pt(0.5, 0.5), TargetSize: &gaze.Size{W: 0.1, H: 0.1}, Gaze: pt(0.5, 0.5), Surface: square}
	require.NotNil(t, GazeInBox(full, 1.2))

	noTarget := full
	noTarget.TargetCenter = nil
	assert.Nil(t, GazeInBox(noTarget, 1.2))

	noSize := full
	noSize.TargetSize = nil
	assert.Nil(t, GazeInBox(noSize, 1.2))

	noSurface := full
	noSurface.Surface = nil
	assert.Nil(t, GazeInBox(noSurface, 1.2))
}

func TestComputeFrames_SpeedResetsAtTrialStart(t *testing.T) {
	t.Parallel()

	frames := []Frame{
		{Frame: 0, TargetCenter: pt(0.5, 0.5), Gaze: pt(0.5, 0.5)},
		{Frame: 1, TargetCenter: pt(0.8, 0.5), Gaze: pt(0.6, 0.5)},
		{Frame: 2, TargetCenter: pt(0.9, 0.5), Gaze: nil},
		{Frame: 3, TargetCenter: pt(0.9, 0.9), Gaze: pt(0.9, 0.5)},
	}
	labels := []l4trials.Label{{}, {TrialID: 1, Direction: gaze.DirectionRight}, {TrialID: 1, Direction: gaze.DirectionRight}, {}}

	fm := ComputeFrames(frames, labels, DefaultOptions())
	require.Len(t, fm, 4)

	// first frame has no predecessor
	assert.Nil(t, fm[0].TargetSpeed)
	// trial start: reset to zero despite the jump
	assert.Equal(t, 0.0, *fm[1].TargetSpeed)
	assert.Equal(t, 0.0, *fm[1].GazeSpeed)
	assert.InDelta(t, 0.1, *fm[2].TargetSpeed, 1e-12)
	// absent current gaze
	assert.Nil(t, fm[2].GazeSpeed)
	// absent previous gaze
	assert.Nil(t, fm[3].GazeSpeed)
	assert.InDelta(t, 0.4, *fm[3].TargetSpeed, 1e-12)
}

func TestComputeTrial_ExcursionThresholdBoundary(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	t.Run("exactly 80 percent", func(t *testing.T) {
		t.Parallel()
		trial := gaze.Trial{ID: 1, StartFrame: 0, EndFrame: 9}
		m, _ := ComputeTrial(trial, numbered(10, 0), inBoxSeries(10, 8), opts)
		require.NotNil(t, m.ExcursionSuccess)
		assert.True(t, *m.ExcursionSuccess)
		assert.InDelta(t, 0.8, *m.GazeInBoxFraction, 1e-12)
	})

	t.Run("79.99 percent", func(t *testing.T) {
		t.Parallel()
		trial := gaze.Trial{ID: 1, StartFrame: 0, EndFrame: 9999}
		m, _ := ComputeTrial(trial, numbered(10000, 0), inBoxSeries(10000, 7999), opts)
		require.NotNil(t, m.ExcursionSuccess)
		assert.False(t, *m.ExcursionSuccess)
	})
}

func TestComputeTrial_FractionOverValidFramesOnly(t *testing.T) {
	t.Parallel()

	fm := inBoxSeries(4, 3)
	fm = append(fm, FrameMetrics{}, FrameMetrics{})
	m, _ := ComputeTrial(gaze.Trial{ID: 1, StartFrame: 0, EndFrame: 5}, numbered(6, 0), fm, DefaultOptions())
	assert.Equal(t, 6, m.Frames)
	assert.Equal(t, 4, m.ValidFrames)
	assert.InDelta(t, 0.75, *m.GazeInBoxFraction, 1e-12)
	assert.False(t, *m.ExcursionSuccess)
}

func TestComputeTrial_NoValidFramesIsNull(t *testing.T) {
	t.Parallel()

	trial := gaze.Trial{ID: 3, Direction: gaze.DirectionUp, StartFrame: 10, EndFrame: 12, Segment: "slow"}
	m, diags := ComputeTrial(trial, numbered(3, 10), make([]FrameMetrics, 3), DefaultOptions())

	assert.Nil(t, m.GazeInBoxFraction)
	assert.Nil(t, m.ExcursionSuccess)
	assert.Nil(t, m.DirectionalExcursionSuccess)
	assert.Nil(t, m.DirectionalExcursionReached)
	assert.Nil(t, m.MeanGazeSpeed)
	assert.Nil(t, m.MeanTargetSpeed)
	assert.Nil(t, m.MeanPupilDiameter)
	assert.Nil(t, m.LatencySeconds)

	assert.Len(t, diags, 5)
	for _, d := range diags {
		assert.Equal(t, gaze.KindInsufficientTrialData, d.Kind)
		assert.Equal(t, 3, d.TrialID)
		assert.Equal(t, "slow", d.Segment)
		assert.ErrorIs(t, d.Err(), gaze.ErrInsufficientTrialData)
	}
}

func TestComputeTrial_PupilAndLatency(t *testing.T) {
	t.Parallel()

	frames := numbered(6, 100)
	frames[0].Pupil = gaze.Ptr(3.0)
	frames[2].Pupil = gaze.Ptr(5.0)

	fm := make([]FrameMetrics, 6)
	for i := range fm {
		fm[i].GazeInBox = gaze.Ptr(i >= 3)
		fm[i].GazeSpeed = gaze.Ptr(float64(i))
	}
	m, _ := ComputeTrial(gaze.Trial{ID: 1, StartFrame: 100, EndFrame: 105}, frames, fm, DefaultOptions())

	assert.InDelta(t, 4.0, *m.MeanPupilDiameter, 1e-12)
	assert.InDelta(t, 2.5, *m.MeanGazeSpeed, 1e-12)
	require.NotNil(t, m.LatencySeconds)
	assert.InDelta(t, 0.1, *m.LatencySeconds, 1e-12)
}

func TestComputeTrial_NeverInBoxHasNoLatency(t *testing.T) {
	t.Parallel()

	m, _ := ComputeTrial(gaze.Trial{ID: 1, StartFrame: 0, EndFrame: 4}, numbered(5, 0), inBoxSeries(5, 0), DefaultOptions())
	assert.Nil(t, m.LatencySeconds)
	assert.Equal(t, 0.0, *m.GazeInBoxFraction)
}

func upTrial(gazeY ...float64) []Frame {
	targetY := []float64{0.35, 0.25, 0.15, 0.15}
	frames := make([]Frame, len(targetY))
	for i, y := range targetY {
		frames[i] = Frame{
			Frame:        i,
			TargetCenter: pt(0.5, y),
			TargetSize:   &gaze.Size{W: 0.1, H: 0.1},
		}
		if i < len(gazeY) {
			frames[i].Gaze = pt(0.5, gazeY[i])
		}
	}
	return frames
}

func TestDirectionalExcursion(t *testing.T) {
	t.Parallel()

	t.Run("gaze crosses threshold", func(t *testing.T) {
		t.Parallel()
		// top edge reaches 0.10, threshold 0.15
		dx, ok := DirectionalExcursion(gaze.DirectionUp, upTrial(0.4, 0.3, 0.2, 0.14), 0.05)
		require.True(t, ok)
		assert.True(t, dx.Success)
		assert.Equal(t, 1.0, dx.Reached)
		assert.InDelta(t, 0.15, dx.Threshold, 1e-12)
	})

	t.Run("gaze stops halfway", func(t *testing.T) {
		t.Parallel()
		dx, ok := DirectionalExcursion(gaze.DirectionUp, upTrial(0.4, 0.3, 0.25), 0.05)
		require.True(t, ok)
		assert.False(t, dx.Success)
		assert.InDelta(t, 0.5, dx.Reached, 1e-9)
	})

	t.Run("gaze behind origin clamps to zero", func(t *testing.T) {
		t.Parallel()
		dx, ok := DirectionalExcursion(gaze.DirectionUp, upTrial(0.6, 0.7), 0.05)
		require.True(t, ok)
		assert.False(t, dx.Success)
		assert.Equal(t, 0.0, dx.Reached)
	})

	t.Run("no gaze", func(t *testing.T) {
		t.Parallel()
		_, ok := DirectionalExcursion(gaze.DirectionUp, upTrial(), 0.05)
		assert.False(t, ok)
	})

	t.Run("right uses right edge", func(t *testing.T) {
		t.Parallel()
		frames := []Frame{
			{Frame: 0, TargetCenter: pt(0.65, 0.5), TargetSize: &gaze.Size{W: 0.1, H: 0.1}, Gaze: pt(0.5, 0.5)},
			{Frame: 1, TargetCenter: pt(0.85, 0.5), TargetSize: &gaze.Size{W: 0.1, H: 0.1}, Gaze: pt(0.86, 0.5)},
		}
		// right edge 0.90, threshold 0.85
		dx, ok := DirectionalExcursion(gaze.DirectionRight, frames, 0.05)
		require.True(t, ok)
		assert.True(t, dx.Success)
		assert.InDelta(t, 0.85, dx.Threshold, 1e-12)
	})
}

// stepTrial has the target jump from the centre onto its goal on the first
// frame: top edge 0.15, so the up threshold sits at 0.20.
func stepTrial(start int, gazeY float64) []Frame {
	frames := make([]Frame, 3)
	for i := range frames {
		frames[i] = Frame{
			Frame:        start + i,
			TargetCenter: pt(0.5, 0.2),
			TargetSize:   &gaze.Size{W: 0.1, H: 0.1},
			Gaze:         pt(0.5, gazeY),
		}
	}
	return frames
}

func TestDirectionalExcursionFrom_StepTarget(t *testing.T) {
	t.Parallel()

	// measured inside the trial the target never moves, so nothing is graded
	dx, ok := DirectionalExcursion(gaze.DirectionUp, stepTrial(0, 0.35), 0.05)
	require.True(t, ok)
	assert.False(t, dx.Success)
	assert.Equal(t, 0.0, dx.Reached)

	// from the centre before the jump the gaze covered half the way
	dx, ok = DirectionalExcursionFrom(gaze.DirectionUp, pt(0.5, 0.5), stepTrial(0, 0.35), 0.05)
	require.True(t, ok)
	assert.False(t, dx.Success)
	assert.InDelta(t, 0.5, dx.Reached, 1e-9)

	nan := gaze.Point{X: math.NaN(), Y: 0.5}
	dx, ok = DirectionalExcursionFrom(gaze.DirectionUp, &nan, stepTrial(0, 0.35), 0.05)
	require.True(t, ok)
	assert.Equal(t, 0.0, dx.Reached)
}

func TestComputeTrials_ReachedFromPrecedingFrame(t *testing.T) {
	t.Parallel()

	before := Frame{Frame: 9, TargetCenter: pt(0.5, 0.5), TargetSize: &gaze.Size{W: 0.1, H: 0.1}}
	frames := append([]Frame{before}, stepTrial(10, 0.35)...)
	fm := inBoxSeries(len(frames), 0)
	trials := []gaze.Trial{{ID: 1, Direction: gaze.DirectionUp, StartFrame: 10, EndFrame: 12}}

	ms, _ := ComputeTrials(trials, frames, fm, DefaultOptions())
	require.Len(t, ms, 1)
	require.NotNil(t, ms[0].DirectionalExcursionReached)
	assert.InDelta(t, 0.5, *ms[0].DirectionalExcursionReached, 1e-9)
	assert.False(t, *ms[0].DirectionalExcursionSuccess)
}

func TestComputeTrials_SlicesByFrameRange(t *testing.T) {
	t.Parallel()

	frames := numbered(10, 0)
	fm := inBoxSeries(10, 10)
	trials := []gaze.Trial{
		{ID: 1, StartFrame: 2, EndFrame: 4},
		{ID: 2, StartFrame: 6, EndFrame: 9},
	}
	ms, _ := ComputeTrials(trials, frames, fm, DefaultOptions())
	require.Len(t, ms, 2)
	assert.Equal(t, 3, ms[0].Frames)
	assert.Equal(t, 4, ms[1].Frames)
	assert.Equal(t, 2, ms[1].TrialID)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultOptions().Validate())

	bad := []func(*Options){
		func(o *Options) { o.PaddingFactor = 0.9 },
		func(o *Options) { o.SuccessThreshold = 0 },
		func(o *Options) { o.SuccessThreshold = 1.01 },
		func(o *Options) { o.DirectionalMargin = -0.1 },
		func(o *Options) { o.FrameRate = 0 },
	}
	for i, mutate := range bad {
		o := DefaultOptions()
		mutate(&o)
		assert.ErrorIs(t, o.Validate(), gaze.ErrInvalidInput, "case %d", i)
	}
}
