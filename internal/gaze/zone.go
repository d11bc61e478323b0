package gaze

import "fmt"

// Zone is one of six mutually exclusive regions of normalized screen space.
type Zone string

const (
	ZoneCenter Zone = "center"
	ZoneUp     Zone = "up"
	ZoneDown   Zone = "down"
	ZoneLeft   Zone = "left"
	ZoneRight  Zone = "right"
	ZoneOther  Zone = "other"
)

// Direction labels a trial. DirectionNone marks frames outside any trial.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Directions lists the trial directions in reporting order.
var Directions = []Direction{DirectionUp, DirectionDown, DirectionLeft, DirectionRight}

// Direction returns the trial direction for a directional zone.
func (z Zone) Direction() (Direction, bool) {
	switch z {
	case ZoneUp:
		return DirectionUp, true
	case ZoneDown:
		return DirectionDown, true
	case ZoneLeft:
		return DirectionLeft, true
	case ZoneRight:
		return DirectionRight, true
	}
	return DirectionNone, false
}

// ParseDirection accepts the four trial directions, case-sensitive.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return d, nil
	}
	return DirectionNone, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, s)
}

// ParseDirections parses a list of direction names.
func ParseDirections(names []string) ([]Direction, error) {
	out := make([]Direction, 0, len(names))
	for _, n := range names {
		d, err := ParseDirection(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// DirectionRank gives the index of d in Directions, or len(Directions).
func DirectionRank(d Direction) int {
	for i, v := range Directions {
		if v == d {
			return i
		}
	}
	return len(Directions)
}
