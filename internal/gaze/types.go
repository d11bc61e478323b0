package gaze

import (
	"fmt"
	"math"
	"sort"
)

// Point is a 2D coordinate. Depending on context it is either normalized to
// the rectified surface ([0,1]²) or expressed in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Valid reports whether both coordinates are finite numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Size is a normalized (or pixel) width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Corners are the four tracked surface corners in scene-camera pixels.
type Corners struct {
	TL Point `json:"tl"`
	TR Point `json:"tr"`
	BR Point `json:"br"`
	BL Point `json:"bl"`
}

// Points returns the corners in tl, tr, br, bl order.
func (c Corners) Points() [4]Point {
	return [4]Point{c.TL, c.TR, c.BR, c.BL}
}

// FrameRecord is one row per video frame. Frame is the join key across all
// upstream sources. Every optional attribute is a pointer; nil means the
// upstream source had nothing for that frame.
type FrameRecord struct {
	Frame       int   `json:"frame"`
	TimestampNs int64 `json:"timestamp_ns,omitempty"`

	// Target (ball) detection, normalized to the rectified surface.
	TargetCenter *Point `json:"target_center,omitempty"`
	TargetSize   *Size  `json:"target_size,omitempty"`

	// Gaze normalized to the rectified surface. GazePixel is the raw
	// scene-camera gaze, used only when Gaze is absent.
	Gaze      *Point `json:"gaze,omitempty"`
	GazePixel *Point `json:"gaze_pixel,omitempty"`

	// PupilDiameter is in mm, already combined across both eyes.
	PupilDiameter *float64 `json:"pupil_diameter,omitempty"`

	Corners *Corners `json:"surface_corners,omitempty"`
}

// SortFrames orders records by frame index (stable) and reports the first
// duplicated frame index, if any.
func SortFrames(records []FrameRecord) error {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Frame < records[j].Frame })
	for i := 1; i < len(records); i++ {
		if records[i].Frame == records[i-1].Frame {
			return fmt.Errorf("%w: duplicate frame index %d", ErrInvalidInput, records[i].Frame)
		}
	}
	return nil
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }
