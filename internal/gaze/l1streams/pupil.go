package l1streams

import "math"

// CombinePupil returns the mean of both eyes when both are present, else
// whichever is present, else nil. NaN counts as absent.
func CombinePupil(left, right *float64) *float64 {
	l := present(left)
	r := present(right)
	switch {
	case l && r:
		v := (*left + *right) / 2
		return &v
	case l:
		v := *left
		return &v
	case r:
		v := *right
		return &v
	}
	return nil
}

func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}
