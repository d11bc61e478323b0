package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l2surface"
	"github.com/banshee-data/gaze.report/internal/gaze/l3zones"
	"github.com/banshee-data/gaze.report/internal/gaze/l4trials"
	"github.com/banshee-data/gaze.report/internal/gaze/l5metrics"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// FrameRow is one enriched output frame.
type FrameRow struct {
	gaze.FrameRecord
	Segment string
	// Surface is the rectified output size used for the frame, nil when the
	// frame had no usable geometry.
	Surface *l2surface.OutputSize
	Zone    gaze.Zone
	l4trials.Label
	l5metrics.FrameMetrics
}

// Stats counts frames by how far they got through the pipeline.
type Stats struct {
	Frames        int `json:"frames"`
	Rectified     int `json:"rectified"`
	NoSurface     int `json:"no_surface"`
	Degenerate    int `json:"degenerate"`
	WithGaze      int `json:"with_gaze"`
	WithTarget    int `json:"with_target"`
	Trials        int `json:"trials"`
	Truncated     int `json:"truncated"`
	SequenceFails int `json:"sequence_mismatches"`
}

// Result is everything one analysis run produces.
type Result struct {
	Segments    []gaze.Segment
	Frames      []FrameRow
	Trials      []l6summary.Result
	Summary     l6summary.Report
	Trends      []l6summary.PupilTrend
	Sequences   []l6summary.SequenceCheck
	Diagnostics []gaze.Diagnostic
	Stats       Stats
}

// Run assembles the raw input and analyzes it.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	records, err := Assemble(in, opts.AlignmentTolerance)
	if err != nil {
		return nil, err
	}
	segments := in.Segments
	if len(segments) == 0 {
		segments = SegmentsFromTargets(in.Targets)
	}
	return Analyze(ctx, records, segments, opts)
}

// Analyze runs L2..L6 over assembled frame records. Records are sorted by
// frame; duplicate frames or overlapping segments are rejected.
func Analyze(ctx context.Context, records []gaze.FrameRecord, segments []gaze.Segment, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("frame records: %w", gaze.ErrEmptyAlignmentInput)
	}
	records = append([]gaze.FrameRecord(nil), records...)
	if err := gaze.SortFrames(records); err != nil {
		return nil, err
	}
	segments = append([]gaze.Segment(nil), segments...)
	if err := gaze.ValidateSegments(segments); err != nil {
		return nil, err
	}

	res := &Result{Segments: segments}
	res.Frames = rectify(records, segments, &res.Stats, &res.Diagnostics)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frameIdx := make([]int, len(res.Frames))
	zones := make([]gaze.Zone, len(res.Frames))
	for i := range res.Frames {
		f := &res.Frames[i]
		f.Zone = l3zones.Classify(f.TargetCenter)
		frameIdx[i] = f.Frame
		zones[i] = f.Zone
	}

	labels, trials, err := l4trials.Segment(frameIdx, zones)
	if err != nil {
		return nil, err
	}
	trials, diags := l4trials.AssignSegments(trials, segments)
	res.Diagnostics = append(res.Diagnostics, diags...)
	labels = l4trials.ClipLabels(frameIdx, labels, trials)
	for i := range res.Frames {
		res.Frames[i].Label = labels[i]
	}
	for _, t := range trials {
		if t.Truncated {
			res.Stats.Truncated++
		}
	}
	res.Stats.Trials = len(trials)
	monitoring.Logf("segmented %d trials (%d truncated) over %d segments", len(trials), res.Stats.Truncated, len(segments))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mframes := make([]l5metrics.Frame, len(res.Frames))
	for i, f := range res.Frames {
		mframes[i] = l5metrics.Frame{
			Frame:        f.Frame,
			TargetCenter: f.TargetCenter,
			TargetSize:   f.TargetSize,
			Gaze:         f.Gaze,
			Pupil:        f.PupilDiameter,
			Surface:      f.Surface,
		}
	}
	fm := l5metrics.ComputeFrames(mframes, labels, opts.Metrics)
	for i := range res.Frames {
		res.Frames[i].FrameMetrics = fm[i]
	}
	metrics, diags := l5metrics.ComputeTrials(trials, mframes, fm, opts.Metrics)
	res.Diagnostics = append(res.Diagnostics, diags...)

	res.Trials = l6summary.Pair(trials, metrics)
	res.Summary = l6summary.Aggregate(res.Trials)
	res.Trends = l6summary.PupilTrends(trials, pupilSeries(res.Frames), opts.PupilTrendPoints)
	res.Sequences, diags = l6summary.ValidateSequences(trials, opts.ExpectedSequences)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Stats.SequenceFails = len(diags)

	monitoring.Logf("analysis complete: %d frames, %d trials, %d diagnostics", res.Stats.Frames, len(res.Trials), len(res.Diagnostics))
	return res, nil
}

// rectify resolves each frame's segment and surface. Each segment gets its
// own rectifier so the output size is fixed per segment; frames outside
// every segment share one more.
func rectify(records []gaze.FrameRecord, segments []gaze.Segment, stats *Stats, diags *[]gaze.Diagnostic) []FrameRow {
	rectifiers := map[string]*l2surface.Rectifier{}
	rows := make([]FrameRow, len(records))
	for i, rec := range records {
		row := FrameRow{FrameRecord: rec}
		if seg, ok := gaze.FindSegment(segments, rec.Frame); ok {
			row.Segment = seg.Name
		}

		if rec.Corners == nil {
			stats.NoSurface++
		} else {
			r, ok := rectifiers[row.Segment]
			if !ok {
				r = l2surface.NewRectifier()
				rectifiers[row.Segment] = r
			}
			tr, err := r.Transform(*rec.Corners)
			if err != nil {
				stats.Degenerate++
				*diags = append(*diags, gaze.Diagnostic{
					Kind:    gaze.KindDegenerateSurfaceGeometry,
					Frame:   rec.Frame,
					Segment: row.Segment,
					Message: err.Error(),
				})
			} else {
				stats.Rectified++
				row.Surface = gaze.Ptr(tr.Size)
				if row.Gaze == nil && row.GazePixel != nil {
					if p, err := tr.Normalize(*row.GazePixel); err == nil {
						row.Gaze = &p
					}
				}
			}
		}

		if row.Gaze != nil {
			stats.WithGaze++
		}
		if row.TargetCenter != nil {
			stats.WithTarget++
		}
		rows[i] = row
	}
	stats.Frames = len(rows)

	monitoring.Logf("rectified %d/%d frames (%d without surface, %d degenerate)",
		stats.Rectified, stats.Frames, stats.NoSurface, stats.Degenerate)
	return rows
}

// pupilSeries collects each trial's non-null pupil values in frame order.
func pupilSeries(rows []FrameRow) map[int][]float64 {
	out := map[int][]float64{}
	for _, r := range rows {
		if r.TrialID > 0 && r.PupilDiameter != nil {
			out[r.TrialID] = append(out[r.TrialID], *r.PupilDiameter)
		}
	}
	return out
}
