package sqlite

import (
	"database/sql"
	"strings"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
)

// statColumns maps each summary statistic to its column prefix. Each
// prefix expands to <prefix>_mean and <prefix>_count.
var statColumns = []struct {
	prefix string
	field  func(*l6summary.Summary) **l6summary.Stat
}{
	{"gaze_in_box_perc", func(s *l6summary.Summary) **l6summary.Stat { return &s.GazeInBoxPerc }},
	{"excursion_perc_frames", func(s *l6summary.Summary) **l6summary.Stat { return &s.ExcursionPercFrames }},
	{"excursion_success_perc", func(s *l6summary.Summary) **l6summary.Stat { return &s.ExcursionSuccessPerc }},
	{"directional_excursion_success_perc", func(s *l6summary.Summary) **l6summary.Stat { return &s.DirectionalSuccessPerc }},
	{"directional_excursion_reached", func(s *l6summary.Summary) **l6summary.Stat { return &s.DirectionalReached }},
	{"gaze_speed", func(s *l6summary.Summary) **l6summary.Stat { return &s.GazeSpeed }},
	{"target_speed", func(s *l6summary.Summary) **l6summary.Stat { return &s.TargetSpeed }},
	{"pupil_diameter", func(s *l6summary.Summary) **l6summary.Stat { return &s.PupilDiameter }},
	{"latency_s", func(s *l6summary.Summary) **l6summary.Stat { return &s.Latency }},
}

func statColumnNames() []string {
	names := make([]string, 0, 2*len(statColumns))
	for _, c := range statColumns {
		names = append(names, c.prefix+"_mean", c.prefix+"_count")
	}
	return names
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return gaze.Ptr(v.Float64)
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return gaze.Ptr(v.Bool)
}

func joinDirections(dirs []gaze.Direction) string {
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = string(d)
	}
	return strings.Join(parts, " ")
}

func splitDirections(s string) []gaze.Direction {
	var out []gaze.Direction
	for _, f := range strings.Fields(s) {
		out = append(out, gaze.Direction(f))
	}
	return out
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
