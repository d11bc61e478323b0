package l2surface

import (
	"testing"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var skewed = gaze.Corners{
	TL: gaze.Point{X: 100, Y: 50},
	TR: gaze.Point{X: 1180, Y: 80},
	BR: gaze.Point{X: 1200, Y: 700},
	BL: gaze.Point{X: 80, Y: 680},
}

func TestSizeFromCorners(t *testing.T) {
	t.Parallel()

	size, err := SizeFromCorners(skewed)
	require.NoError(t, err)
	// |bl-br| = hypot(1120, 20), |tl-bl| = hypot(20, 630)
	assert.Equal(t, OutputSize{Width: 1120, Height: 630}, size)
}

func TestRectifier_CornersMapToCanonicalRectangle(t *testing.T) {
	t.Parallel()

	r := NewRectifier()
	tr, err := r.Transform(skewed)
	require.NoError(t, err)

	want := tr.Size.canonical()
	for i, p := range skewed.Points() {
		got, err := tr.Rectify(p)
		require.NoError(t, err)
		assert.InDelta(t, want[i].X, got.X, 1e-6, "corner %d x", i)
		assert.InDelta(t, want[i].Y, got.Y, 1e-6, "corner %d y", i)
	}
}

func TestRectifier_AxisAlignedSurface(t *testing.T) {
	t.Parallel()

	full := gaze.Corners{
		TL: gaze.Point{X: 0, Y: 0},
		TR: gaze.Point{X: 1279, Y: 0},
		BR: gaze.Point{X: 1279, Y: 719},
		BL: gaze.Point{X: 0, Y: 719},
	}
	tr, err := NewRectifier().Transform(full)
	require.NoError(t, err)
	assert.Equal(t, OutputSize{Width: 1279, Height: 719}, tr.Size)

	mid, err := tr.Rectify(gaze.Point{X: 639.5, Y: 359.5})
	require.NoError(t, err)
	assert.InDelta(t, 639.0, mid.X, 1e-6)
	assert.InDelta(t, 359.0, mid.Y, 1e-6)

	n, err := tr.Normalize(gaze.Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, n.X, 1e-9)
	assert.InDelta(t, 0, n.Y, 1e-9)
}

func TestRectifier_SizeHeldFixed(t *testing.T) {
	t.Parallel()

	r := NewRectifier()
	_, fixed := r.Size()
	assert.False(t, fixed)

	first, err := r.Transform(skewed)
	require.NoError(t, err)

	bigger := gaze.Corners{
		TL: gaze.Point{X: 0, Y: 0},
		TR: gaze.Point{X: 1500, Y: 0},
		BR: gaze.Point{X: 1500, Y: 900},
		BL: gaze.Point{X: 0, Y: 900},
	}
	second, err := r.Transform(bigger)
	require.NoError(t, err)
	assert.Equal(t, first.Size, second.Size)

	// the later frame still maps its own corners onto the held rectangle
	br, err := second.Rectify(bigger.BR)
	require.NoError(t, err)
	assert.InDelta(t, float64(first.Size.Width-1), br.X, 1e-6)
	assert.InDelta(t, float64(first.Size.Height-1), br.Y, 1e-6)
}

func TestRectifier_DegenerateFrameDoesNotFixSize(t *testing.T) {
	t.Parallel()

	r := NewRectifier()
	_, err := r.Transform(gaze.Corners{})
	assert.ErrorIs(t, err, gaze.ErrDegenerateSurfaceGeometry)
	_, fixed := r.Size()
	assert.False(t, fixed)

	_, err = r.Transform(skewed)
	require.NoError(t, err)
	size, fixed := r.Size()
	assert.True(t, fixed)
	assert.Equal(t, 1120, size.Width)
}

func TestRectifier_Degenerate(t *testing.T) {
	t.Parallel()

	cases := map[string]gaze.Corners{
		"all same point": {},
		"collinear": {
			TL: gaze.Point{X: 0, Y: 0},
			TR: gaze.Point{X: 100, Y: 0},
			BR: gaze.Point{X: 200, Y: 0},
			BL: gaze.Point{X: 300, Y: 0},
		},
		"three collinear": {
			TL: gaze.Point{X: 0, Y: 0},
			TR: gaze.Point{X: 100, Y: 0},
			BR: gaze.Point{X: 200, Y: 0},
			BL: gaze.Point{X: 0, Y: 100},
		},
		"duplicate corner": {
			TL: gaze.Point{X: 0, Y: 0},
			TR: gaze.Point{X: 100, Y: 0},
			BR: gaze.Point{X: 100, Y: 0},
			BL: gaze.Point{X: 0, Y: 100},
		},
		"sub-pixel": {
			TL: gaze.Point{X: 0, Y: 0},
			TR: gaze.Point{X: 0.4, Y: 0},
			BR: gaze.Point{X: 0.4, Y: 0.4},
			BL: gaze.Point{X: 0, Y: 0.4},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRectifier().Transform(c)
			assert.ErrorIs(t, err, gaze.ErrDegenerateSurfaceGeometry)
		})
	}
}

func TestNewFixedRectifier(t *testing.T) {
	t.Parallel()

	_, err := NewFixedRectifier(OutputSize{Width: 0, Height: 10})
	assert.ErrorIs(t, err, gaze.ErrDegenerateSurfaceGeometry)

	r, err := NewFixedRectifier(OutputSize{Width: 200, Height: 100})
	require.NoError(t, err)
	tr, err := r.Transform(skewed)
	require.NoError(t, err)
	assert.Equal(t, OutputSize{Width: 200, Height: 100}, tr.Size)
}

func TestOutputSize_NormalizeRoundTrip(t *testing.T) {
	t.Parallel()

	s := OutputSize{Width: 1280, Height: 720}
	p := s.Denormalize(gaze.Point{X: 0.25, Y: 0.5})
	assert.Equal(t, gaze.Point{X: 320, Y: 360}, p)
	assert.Equal(t, gaze.Point{X: 0.25, Y: 0.5}, s.Normalize(p))
	assert.Equal(t, gaze.Size{W: 128, H: 72}, s.DenormalizeSize(gaze.Size{W: 0.1, H: 0.1}))
}
