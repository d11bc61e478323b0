// Package testutil provides shared test utilities and fixtures.
//
// Besides the assertion helpers it generates synthetic recording sessions:
// a target that jumps between the centre and the four cardinal positions,
// tracked by a gaze that is either perfect or offset, on a static
// full-frame surface.
package testutil

import (
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta fails the test if got is further than delta from want.
func AssertInDelta(t testing.TB, want, got, delta float64, name string) {
	t.Helper()
	diff := want - got
	if diff < -delta || diff > delta {
		t.Errorf("%s = %g, want %g (±%g)", name, got, want, delta)
	}
}
