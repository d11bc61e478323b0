package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l1streams"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// WorldFrame is one row of the world-camera timeline.
type WorldFrame struct {
	Frame       int
	TimestampNs int64
}

// GazeSample is one gaze-tracker reading. Detected, when set to false,
// marks a sample off the surface; it is dropped before alignment.
type GazeSample struct {
	TimestampNs int64
	Gaze        *gaze.Point
	GazePixel   *gaze.Point
	Detected    *bool
}

// PupilSample is one eye-state reading with per-eye diameters in mm.
type PupilSample struct {
	TimestampNs int64
	Left        *float64
	Right       *float64
}

// TargetRow is one target-detector output row, keyed by frame.
type TargetRow struct {
	Frame   int
	Center  *gaze.Point
	Size    *gaze.Size
	Segment string
}

// SurfaceRow carries the tracked surface corners of one frame.
type SurfaceRow struct {
	Frame   int
	Corners gaze.Corners
}

// Input is the set of raw tables an analysis starts from.
type Input struct {
	World    []WorldFrame
	Gaze     []GazeSample
	Pupil    []PupilSample
	Targets  []TargetRow
	Surfaces []SurfaceRow
	// Segments may be empty, in which case they are derived from the
	// target rows' segment names.
	Segments []gaze.Segment
}

type gazePayload struct {
	norm, pixel *gaze.Point
}

// Assemble aligns gaze and pupil samples onto the world timeline by
// timestamp and joins targets and surfaces by frame index. The world
// timeline must not be empty.
func Assemble(in Input, tolerance time.Duration) ([]gaze.FrameRecord, error) {
	if len(in.World) == 0 {
		return nil, fmt.Errorf("world timeline: %w", gaze.ErrEmptyAlignmentInput)
	}

	world := append([]WorldFrame(nil), in.World...)
	sort.SliceStable(world, func(i, j int) bool { return world[i].Frame < world[j].Frame })
	ref := make([]int64, len(world))
	for i, w := range world {
		if i > 0 && w.Frame == world[i-1].Frame {
			return nil, fmt.Errorf("%w: duplicate world frame %d", gaze.ErrInvalidInput, w.Frame)
		}
		ref[i] = w.TimestampNs
	}

	gazeSamples := make([]l1streams.Sample[gazePayload], 0, len(in.Gaze))
	dropped := 0
	for _, g := range in.Gaze {
		if g.Detected != nil && !*g.Detected {
			dropped++
			continue
		}
		gazeSamples = append(gazeSamples, l1streams.Sample[gazePayload]{
			TimestampNs: g.TimestampNs,
			Payload:     gazePayload{norm: g.Gaze, pixel: g.GazePixel},
		})
	}
	gazeMatches, err := l1streams.Align(ref, gazeSamples, tolerance)
	if err != nil {
		return nil, fmt.Errorf("align gaze: %w", err)
	}

	pupilSamples := make([]l1streams.Sample[*float64], len(in.Pupil))
	for i, p := range in.Pupil {
		pupilSamples[i] = l1streams.Sample[*float64]{
			TimestampNs: p.TimestampNs,
			Payload:     l1streams.CombinePupil(p.Left, p.Right),
		}
	}
	pupilMatches, err := l1streams.Align(ref, pupilSamples, tolerance)
	if err != nil {
		return nil, fmt.Errorf("align pupil: %w", err)
	}

	targets := make(map[int]TargetRow, len(in.Targets))
	for _, t := range in.Targets {
		if _, dup := targets[t.Frame]; dup {
			return nil, fmt.Errorf("%w: duplicate target row for frame %d", gaze.ErrInvalidInput, t.Frame)
		}
		targets[t.Frame] = t
	}
	surfaces := make(map[int]gaze.Corners, len(in.Surfaces))
	for _, s := range in.Surfaces {
		if _, dup := surfaces[s.Frame]; dup {
			return nil, fmt.Errorf("%w: duplicate surface row for frame %d", gaze.ErrInvalidInput, s.Frame)
		}
		surfaces[s.Frame] = s.Corners
	}

	records := make([]gaze.FrameRecord, len(world))
	matchedGaze, matchedPupil := 0, 0
	for i, w := range world {
		rec := gaze.FrameRecord{Frame: w.Frame, TimestampNs: w.TimestampNs}
		if m := gazeMatches[i]; m.OK {
			rec.Gaze = validPoint(m.Payload.norm)
			rec.GazePixel = validPoint(m.Payload.pixel)
			matchedGaze++
		}
		if m := pupilMatches[i]; m.OK && m.Payload != nil {
			rec.PupilDiameter = gaze.Ptr(*m.Payload)
			matchedPupil++
		}
		if t, ok := targets[w.Frame]; ok && t.Center != nil && t.Center.Valid() {
			rec.TargetCenter = gaze.Ptr(*t.Center)
			if t.Size != nil {
				rec.TargetSize = gaze.Ptr(*t.Size)
			}
		}
		if c, ok := surfaces[w.Frame]; ok {
			rec.Corners = gaze.Ptr(c)
		}
		records[i] = rec
	}

	monitoring.Logf("assembled %d frames: gaze matched %d (%d off-surface samples dropped), pupil matched %d, targets %d, surfaces %d",
		len(records), matchedGaze, dropped, matchedPupil, len(targets), len(surfaces))
	return records, nil
}

func validPoint(p *gaze.Point) *gaze.Point {
	if p == nil || !p.Valid() {
		return nil
	}
	return gaze.Ptr(*p)
}

// SegmentsFromTargets derives segments from contiguous runs of the same
// non-empty segment name in the target rows.
func SegmentsFromTargets(rows []TargetRow) []gaze.Segment {
	sorted := append([]TargetRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })

	var out []gaze.Segment
	for _, r := range sorted {
		if r.Segment == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Name == r.Segment {
			out[n-1].EndFrame = r.Frame
			continue
		}
		out = append(out, gaze.Segment{Name: r.Segment, StartFrame: r.Frame, EndFrame: r.Frame})
	}
	return out
}
