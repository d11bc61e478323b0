package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// Template event types.
const (
	EventSegment = "segment"
	EventTrial   = "trial"
)

// TemplateEvent is one row of a fixed-time template. Frames are relative
// to the recording onset; End is exclusive. For segment rows Label is the
// segment name, for trial rows it is the direction.
type TemplateEvent struct {
	Type  string
	Label string
	Start int
	End   int
}

// Template describes the planned segments and trial directions of a
// session relative to its onset frame.
type Template struct {
	Events []TemplateEvent
}

// LoadTemplate reads a template table with columns event_type, direction,
// relative_start and relative_end.
func LoadTemplate(fsys fsutil.FileSystem, path string) (*Template, error) {
	t, err := readTable(fsys, path)
	if err != nil {
		return nil, err
	}
	cols := make([]int, 4)
	for i, name := range []string{"event_type", "direction", "relative_start", "relative_end"} {
		if cols[i], err = t.require(name); err != nil {
			return nil, err
		}
	}

	tpl := &Template{}
	for i, row := range t.rows {
		ev := TemplateEvent{
			Type:  strings.ToLower(cell(row, cols[0])),
			Label: cell(row, cols[1]),
		}
		if ev.Type != EventSegment && ev.Type != EventTrial {
			return nil, fmt.Errorf("%s line %d: unknown event type %q", path, line(i), ev.Type)
		}
		start, ok, err := t.integer(row, cols[2], i)
		if err != nil {
			return nil, err
		}
		end, ok2, err := t.integer(row, cols[3], i)
		if err != nil {
			return nil, err
		}
		if !ok || !ok2 {
			return nil, fmt.Errorf("%s line %d: missing relative frame", path, line(i))
		}
		if end <= start {
			return nil, fmt.Errorf("%s line %d: %w: end %d not after start %d", path, line(i), gaze.ErrInvalidInput, end, start)
		}
		ev.Start, ev.End = int(start), int(end)
		tpl.Events = append(tpl.Events, ev)
	}
	return tpl, nil
}

// Apply anchors the template at onset. It returns the segments with
// inclusive absolute bounds and, per segment, the expected trial directions
// in start order. Trials are assigned to the segment containing their
// start; trials outside every segment are dropped.
func (tpl *Template) Apply(onset int) ([]gaze.Segment, map[string][]gaze.Direction, error) {
	var segments []gaze.Segment
	var trials []TemplateEvent
	for _, ev := range tpl.Events {
		switch ev.Type {
		case EventSegment:
			segments = append(segments, gaze.Segment{
				Name:       ev.Label,
				StartFrame: onset + ev.Start,
				EndFrame:   onset + ev.End - 1,
			})
		case EventTrial:
			trials = append(trials, ev)
		}
	}
	if err := gaze.ValidateSegments(segments); err != nil {
		return nil, nil, fmt.Errorf("template: %w", err)
	}

	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Start < trials[j].Start })
	expected := make(map[string][]gaze.Direction, len(segments))
	orphaned := 0
	for _, ev := range trials {
		dir, err := gaze.ParseDirection(ev.Label)
		if err != nil {
			return nil, nil, fmt.Errorf("template trial at %d: %w", ev.Start, err)
		}
		seg, ok := gaze.FindSegment(segments, onset+ev.Start)
		if !ok {
			orphaned++
			continue
		}
		expected[seg.Name] = append(expected[seg.Name], dir)
	}
	if orphaned > 0 {
		monitoring.Logf("template: %d trials start outside every segment and were ignored", orphaned)
	}
	return segments, expected, nil
}
