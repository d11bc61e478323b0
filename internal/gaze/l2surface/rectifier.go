package l2surface

import (
	"fmt"
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// OutputSize is the rectified surface size in whole pixels.
type OutputSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions allow a non-degenerate rectangle.
func (s OutputSize) Valid() bool {
	return s.Width > 1 && s.Height > 1
}

// SizeFromCorners derives the rectified size from the longer of each pair of
// opposite quadrilateral edges.
func SizeFromCorners(c gaze.Corners) (OutputSize, error) {
	w := math.Round(math.Max(c.TL.Dist(c.TR), c.BL.Dist(c.BR)))
	h := math.Round(math.Max(c.TL.Dist(c.BL), c.TR.Dist(c.BR)))
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return OutputSize{}, fmt.Errorf("%w: non-finite corners", gaze.ErrDegenerateSurfaceGeometry)
	}
	size := OutputSize{Width: int(w), Height: int(h)}
	if !size.Valid() {
		return OutputSize{}, fmt.Errorf("%w: output size %dx%d", gaze.ErrDegenerateSurfaceGeometry, size.Width, size.Height)
	}
	return size, nil
}

// canonical returns the rectangle corners in tl, tr, br, bl order.
func (s OutputSize) canonical() [4]gaze.Point {
	w, h := float64(s.Width-1), float64(s.Height-1)
	return [4]gaze.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// Transform rectifies points for one frame.
type Transform struct {
	H    Homography
	Size OutputSize
}

// Rectify maps a scene-camera pixel to a rectified pixel.
func (t Transform) Rectify(p gaze.Point) (gaze.Point, error) {
	return t.H.Apply(p)
}

// Normalize maps a scene-camera pixel to normalized surface coordinates.
func (t Transform) Normalize(p gaze.Point) (gaze.Point, error) {
	r, err := t.H.Apply(p)
	if err != nil {
		return gaze.Point{}, err
	}
	return t.Size.Normalize(r), nil
}

// Normalize divides a rectified pixel by the output size.
func (s OutputSize) Normalize(p gaze.Point) gaze.Point {
	return gaze.Point{X: p.X / float64(s.Width), Y: p.Y / float64(s.Height)}
}

// Denormalize scales a normalized point to rectified pixels.
func (s OutputSize) Denormalize(p gaze.Point) gaze.Point {
	return gaze.Point{X: p.X * float64(s.Width), Y: p.Y * float64(s.Height)}
}

// DenormalizeSize scales a normalized width/height to rectified pixels.
func (s OutputSize) DenormalizeSize(sz gaze.Size) gaze.Size {
	return gaze.Size{W: sz.W * float64(s.Width), H: sz.H * float64(s.Height)}
}

// Rectifier computes per-frame transforms while holding the output size
// fixed at whatever the first valid frame produced. Use one Rectifier per
// segment; it is not safe for concurrent use.
type Rectifier struct {
	size  OutputSize
	fixed bool
}

// NewRectifier returns a Rectifier whose size is taken from the first frame
// it successfully rectifies.
func NewRectifier() *Rectifier {
	return &Rectifier{}
}

// NewFixedRectifier returns a Rectifier that always uses size.
func NewFixedRectifier(size OutputSize) (*Rectifier, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: output size %dx%d", gaze.ErrDegenerateSurfaceGeometry, size.Width, size.Height)
	}
	return &Rectifier{size: size, fixed: true}, nil
}

// Size returns the held output size and whether it has been fixed yet.
func (r *Rectifier) Size() (OutputSize, bool) {
	return r.size, r.fixed
}

// Transform returns the frame transform for the given corners. A degenerate
// frame returns an error wrapping ErrDegenerateSurfaceGeometry and leaves the
// held size untouched.
func (r *Rectifier) Transform(c gaze.Corners) (Transform, error) {
	frameSize, err := SizeFromCorners(c)
	if err != nil {
		return Transform{}, err
	}
	size := r.size
	if !r.fixed {
		size = frameSize
	}

	h, err := ComputeHomography(c.Points(), size.canonical())
	if err != nil {
		return Transform{}, err
	}
	if !r.fixed {
		r.size = size
		r.fixed = true
	}
	return Transform{H: h, Size: size}, nil
}
