package l3zones

import (
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Zone boundaries in normalized surface units.
const (
	Low  = 0.40
	High = 0.60
)

// Classify returns the zone for p. A nil point is ZoneOther.
func Classify(p *gaze.Point) gaze.Zone {
	if p == nil {
		return gaze.ZoneOther
	}
	return ClassifyXY(p.X, p.Y)
}

// ClassifyXY returns the zone for (x, y). Vertical zones win over
// horizontal ones, so a top-left corner point is ZoneUp. NaN on either axis
// is ZoneOther.
func ClassifyXY(x, y float64) gaze.Zone {
	if math.IsNaN(x) || math.IsNaN(y) {
		return gaze.ZoneOther
	}
	switch {
	case x > Low && x < High && y > Low && y < High:
		return gaze.ZoneCenter
	case y <= Low:
		return gaze.ZoneUp
	case y >= High:
		return gaze.ZoneDown
	case x <= Low:
		return gaze.ZoneLeft
	case x >= High:
		return gaze.ZoneRight
	}
	return gaze.ZoneOther
}

// ClassifyAll classifies a point series in order.
func ClassifyAll(points []*gaze.Point) []gaze.Zone {
	out := make([]gaze.Zone, len(points))
	for i, p := range points {
		out[i] = Classify(p)
	}
	return out
}
