package l1streams

import (
	"sort"
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Default tolerances for nearest-sample matching.
const (
	DefaultTolerance     = 100 * time.Millisecond
	PostProcessTolerance = 20 * time.Millisecond
)

// Sample is one timestamped reading from a secondary stream.
type Sample[T any] struct {
	TimestampNs int64
	Payload     T
}

// Match is the aligned result for one reference row. OK is false when no
// sample lay within tolerance; Payload is then the zero value and must be
// treated as absent.
type Match[T any] struct {
	Payload T
	OK      bool
	DeltaNs int64
}

// Align performs a nearest-neighbour asof-join of samples onto the reference
// timestamps. The result has one entry per reference row, in reference
// order. Ties in distance resolve to the earlier sample; equal timestamps
// resolve to the sample that came first in the input.
//
// An empty reference timeline is an error. An empty sample stream is not:
// every row comes back unmatched.
func Align[T any](reference []int64, samples []Sample[T], tolerance time.Duration) ([]Match[T], error) {
	if len(reference) == 0 {
		return nil, gaze.ErrEmptyAlignmentInput
	}

	sorted := make([]Sample[T], len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TimestampNs < sorted[j].TimestampNs })

	tol := tolerance.Nanoseconds()
	out := make([]Match[T], len(reference))
	for r, ts := range reference {
		best := nearest(sorted, ts)
		if best < 0 {
			continue
		}
		delta := absDiff(sorted[best].TimestampNs, ts)
		if delta > tol {
			continue
		}
		out[r] = Match[T]{Payload: sorted[best].Payload, OK: true, DeltaNs: delta}
	}
	return out, nil
}

// nearest returns the index of the closest sample to ts, or -1.
func nearest[T any](sorted []Sample[T], ts int64) int {
	n := len(sorted)
	if n == 0 {
		return -1
	}
	// first sample at or after ts; it is also the first of its timestamp run
	after := sort.Search(n, func(k int) bool { return sorted[k].TimestampNs >= ts })

	best := -1
	if after > 0 {
		before := sorted[after-1].TimestampNs
		best = sort.Search(n, func(k int) bool { return sorted[k].TimestampNs >= before })
	}
	if after < n {
		if best < 0 || absDiff(sorted[after].TimestampNs, ts) < absDiff(sorted[best].TimestampNs, ts) {
			best = after
		}
	}
	return best
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
