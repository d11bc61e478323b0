package l2surface

import (
	"fmt"
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"gonum.org/v1/gonum/mat"
)

// collinearEpsilon is relative to the squared extent of the quadrilateral.
const collinearEpsilon = 1e-9

// Homography is a 3x3 projective transform in row-major order with H[8]=1.
type Homography [9]float64

// ComputeHomography returns the unique projective transform mapping the four
// src points onto the four dst points. Duplicate or collinear points on
// either side yield ErrDegenerateSurfaceGeometry.
func ComputeHomography(src, dst [4]gaze.Point) (Homography, error) {
	if err := checkQuad(src); err != nil {
		return Homography{}, fmt.Errorf("source: %w", err)
	}
	if err := checkQuad(dst); err != nil {
		return Homography{}, fmt.Errorf("destination: %w", err)
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", gaze.ErrDegenerateSurfaceGeometry, err)
	}

	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
	}
	out[8] = 1
	return out, nil
}

// Apply maps p through the homography.
func (h Homography) Apply(p gaze.Point) (gaze.Point, error) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return gaze.Point{}, fmt.Errorf("%w: point (%g, %g) maps to infinity", gaze.ErrDegenerateSurfaceGeometry, p.X, p.Y)
	}
	return gaze.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, nil
}

// checkQuad rejects non-finite, duplicate, or collinear corner sets.
func checkQuad(q [4]gaze.Point) error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q {
		if !p.Valid() {
			return fmt.Errorf("%w: non-finite corner", gaze.ErrDegenerateSurfaceGeometry)
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	extent := math.Max(maxX-minX, maxY-minY)
	if extent == 0 {
		return fmt.Errorf("%w: all corners coincide", gaze.ErrDegenerateSurfaceGeometry)
	}
	eps := collinearEpsilon * extent * extent

	// any three corners on a line (or two coinciding) break the 4-point fit
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if math.Abs(cross(q[i], q[j], q[k])) <= eps {
					return fmt.Errorf("%w: corners %d, %d, %d are collinear", gaze.ErrDegenerateSurfaceGeometry, i, j, k)
				}
			}
		}
	}
	return nil
}

func cross(o, a, b gaze.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
