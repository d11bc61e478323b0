// Package units converts stored run timestamps for display.
package units

import (
	"fmt"
	"strings"
	"time"
)

// LoadTimezone resolves a tz database name for display. "" and "UTC" give
// UTC, "local" gives the host zone.
func LoadTimezone(tz string) (*time.Location, error) {
	switch strings.ToLower(tz) {
	case "", "utc":
		return time.UTC, nil
	case "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}

// FormatUnixNano renders a unix-nanosecond timestamp as RFC 3339 in loc.
func FormatUnixNano(ns int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(0, ns).In(loc).Format(time.RFC3339)
}
