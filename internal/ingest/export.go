package ingest

import (
	"errors"
	"fmt"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// ErrMissingFile is returned when a required export table cannot be found.
var ErrMissingFile = errors.New("required export file not found")

// Layout names the tables of an export. Each entry is a filepath.Match
// pattern matched against base names below the export directory.
type Layout struct {
	World     string
	Gaze      string
	Pupil     string // optional
	Surfaces  string
	Targets   string
	CutPoints string // optional
}

// DefaultLayout returns the file names written by the recording export and
// the target detector.
func DefaultLayout() Layout {
	return Layout{
		World:     "world_timestamps.csv",
		Gaze:      "gaze.csv",
		Pupil:     "3d_eye_states.csv",
		Surfaces:  "surface_positions.csv",
		Targets:   "*_analysis.csv",
		CutPoints: "cut_points.csv",
	}
}

// Export is a loaded recording.
type Export struct {
	Dir   string
	Input pipeline.Input
	// Files maps each table kind ("world", "gaze", ...) to the path it was
	// read from. Optional tables that were absent have no entry.
	Files map[string]string
}

// Load reads every table of the export below dir. Missing optional tables
// are skipped; a missing required table returns ErrMissingFile.
func Load(fsys fsutil.FileSystem, dir string, layout Layout) (*Export, error) {
	ex := &Export{Dir: dir, Files: map[string]string{}}

	steps := []struct {
		kind     string
		pattern  string
		required bool
		load     func(*table) error
	}{
		{"world", layout.World, true, func(t *table) (err error) { ex.Input.World, err = parseWorld(t); return }},
		{"gaze", layout.Gaze, true, func(t *table) (err error) { ex.Input.Gaze, err = parseGaze(t); return }},
		{"pupil", layout.Pupil, false, func(t *table) (err error) { ex.Input.Pupil, err = parsePupil(t); return }},
		{"surfaces", layout.Surfaces, true, func(t *table) (err error) { ex.Input.Surfaces, err = parseSurfaces(t); return }},
		{"targets", layout.Targets, true, func(t *table) (err error) { ex.Input.Targets, err = parseTargets(t); return }},
		{"cut_points", layout.CutPoints, false, func(t *table) (err error) { ex.Input.Segments, err = parseCutPoints(t); return }},
	}
	for _, s := range steps {
		if s.pattern == "" {
			if s.required {
				return nil, fmt.Errorf("%w: no file name configured for %s", ErrMissingFile, s.kind)
			}
			continue
		}
		path, ok := locate(fsys, dir, s.pattern)
		if !ok {
			if s.required {
				return nil, fmt.Errorf("%w: %s (%s) below %s", ErrMissingFile, s.kind, s.pattern, dir)
			}
			monitoring.Logf("optional %s table %s not found below %s", s.kind, s.pattern, dir)
			continue
		}
		t, err := readTable(fsys, path)
		if err != nil {
			return nil, err
		}
		if err := s.load(t); err != nil {
			return nil, err
		}
		ex.Files[s.kind] = path
	}

	monitoring.Logf("loaded export %s: %d world frames, %d gaze, %d pupil, %d surface, %d target rows, %d segments",
		dir, len(ex.Input.World), len(ex.Input.Gaze), len(ex.Input.Pupil), len(ex.Input.Surfaces),
		len(ex.Input.Targets), len(ex.Input.Segments))
	return ex, nil
}

func locate(fsys fsutil.FileSystem, dir, pattern string) (string, bool) {
	if p, ok := fsutil.FindFile(fsys, dir, pattern); ok {
		return p, true
	}
	return fsutil.FindFile(fsys, dir, pattern+".zst")
}

// timestampCol finds "timestamp [ns]", falling back to "timestamp [s]".
func timestampCol(t *table) (int, bool, error) {
	if i := t.col("timestamp [ns]"); i >= 0 {
		return i, true, nil
	}
	if i := t.col("timestamp [s]"); i >= 0 {
		return i, false, nil
	}
	return -1, false, fmt.Errorf("%s: missing column %q", t.path, "timestamp [ns]")
}

func (t *table) timestamp(row []string, idx int, ns bool, i int) (int64, bool, error) {
	if ns {
		return t.integer(row, idx, i)
	}
	s, err := t.float(row, idx, i)
	if err != nil || s == nil {
		return 0, false, err
	}
	return int64(*s * 1e9), true, nil
}

// frame reads the frame index, or uses the row order when idx is -1.
func (t *table) frame(row []string, idx, i int) (int, error) {
	if idx < 0 {
		return i, nil
	}
	v, ok, err := t.integer(row, idx, i)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s line %d: missing frame index", t.path, line(i))
	}
	return int(v), nil
}

func parseWorld(t *table) ([]pipeline.WorldFrame, error) {
	tsIdx, ns, err := timestampCol(t)
	if err != nil {
		return nil, err
	}
	fIdx := t.col("world_index", "# frame_idx")

	out := make([]pipeline.WorldFrame, 0, len(t.rows))
	for i, row := range t.rows {
		frame, err := t.frame(row, fIdx, i)
		if err != nil {
			return nil, err
		}
		ts, ok, err := t.timestamp(row, tsIdx, ns, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s line %d: missing timestamp", t.path, line(i))
		}
		out = append(out, pipeline.WorldFrame{Frame: frame, TimestampNs: ts})
	}
	return out, nil
}

func parseGaze(t *table) ([]pipeline.GazeSample, error) {
	tsIdx, ns, err := timestampCol(t)
	if err != nil {
		return nil, err
	}
	xIdx := t.col("gaze position on surface x [normalized]")
	yIdx := t.col("gaze position on surface y [normalized]")
	pxIdx := t.col("gaze x [px]")
	pyIdx := t.col("gaze y [px]")
	if (xIdx < 0 || yIdx < 0) && (pxIdx < 0 || pyIdx < 0) {
		return nil, fmt.Errorf("%s: missing gaze position columns", t.path)
	}
	detIdx := t.col("gaze detected on surface")

	out := make([]pipeline.GazeSample, 0, len(t.rows))
	for i, row := range t.rows {
		ts, ok, err := t.timestamp(row, tsIdx, ns, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s := pipeline.GazeSample{TimestampNs: ts}
		if s.Gaze, err = t.point(row, xIdx, yIdx, i); err != nil {
			return nil, err
		}
		if s.GazePixel, err = t.point(row, pxIdx, pyIdx, i); err != nil {
			return nil, err
		}
		if s.Detected, err = t.boolean(row, detIdx, i); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parsePupil(t *table) ([]pipeline.PupilSample, error) {
	tsIdx, ns, err := timestampCol(t)
	if err != nil {
		return nil, err
	}
	lIdx := t.col("pupil diameter left [mm]")
	rIdx := t.col("pupil diameter right [mm]")
	if lIdx < 0 && rIdx < 0 {
		monitoring.Logf("%s has no pupil diameter columns; pupil metrics will be empty", t.path)
		return nil, nil
	}

	out := make([]pipeline.PupilSample, 0, len(t.rows))
	for i, row := range t.rows {
		ts, ok, err := t.timestamp(row, tsIdx, ns, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s := pipeline.PupilSample{TimestampNs: ts}
		if s.Left, err = t.float(row, lIdx, i); err != nil {
			return nil, err
		}
		if s.Right, err = t.float(row, rIdx, i); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

var cornerNames = [4]string{"tl", "tr", "br", "bl"}

func parseSurfaces(t *table) ([]pipeline.SurfaceRow, error) {
	var cols [4][2]int
	for c, name := range cornerNames {
		var err error
		if cols[c][0], err = t.require(name + " x [px]"); err != nil {
			return nil, err
		}
		if cols[c][1], err = t.require(name + " y [px]"); err != nil {
			return nil, err
		}
	}
	fIdx := t.col("world_index")

	out := make([]pipeline.SurfaceRow, 0, len(t.rows))
	skipped := 0
	for i, row := range t.rows {
		frame, err := t.frame(row, fIdx, i)
		if err != nil {
			return nil, err
		}
		var pts [4]gaze.Point
		complete := true
		for c := range cornerNames {
			p, err := t.point(row, cols[c][0], cols[c][1], i)
			if err != nil {
				return nil, err
			}
			if p == nil {
				complete = false
				break
			}
			pts[c] = *p
		}
		if !complete {
			skipped++
			continue
		}
		out = append(out, pipeline.SurfaceRow{
			Frame:   frame,
			Corners: gaze.Corners{TL: pts[0], TR: pts[1], BR: pts[2], BL: pts[3]},
		})
	}
	if skipped > 0 {
		monitoring.Logf("%s: %d rows without complete corners skipped", t.path, skipped)
	}
	return out, nil
}

func parseTargets(t *table) ([]pipeline.TargetRow, error) {
	fIdx, err := t.require("frame", "frame_input")
	if err != nil {
		return nil, err
	}
	xIdx, err := t.require("ball_center_x_norm")
	if err != nil {
		return nil, err
	}
	yIdx, err := t.require("ball_center_y_norm")
	if err != nil {
		return nil, err
	}
	wIdx := t.col("ball_w_norm")
	hIdx := t.col("ball_h_norm")
	segIdx := t.col("segment_name")

	out := make([]pipeline.TargetRow, 0, len(t.rows))
	for i, row := range t.rows {
		frame, err := t.frame(row, fIdx, i)
		if err != nil {
			return nil, err
		}
		r := pipeline.TargetRow{Frame: frame, Segment: cell(row, segIdx)}
		if r.Center, err = t.point(row, xIdx, yIdx, i); err != nil {
			return nil, err
		}
		sz, err := t.point(row, wIdx, hIdx, i)
		if err != nil {
			return nil, err
		}
		if sz != nil {
			r.Size = &gaze.Size{W: sz.X, H: sz.Y}
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCutPoints(t *table) ([]gaze.Segment, error) {
	nIdx, err := t.require("segment_name")
	if err != nil {
		return nil, err
	}
	sIdx, err := t.require("start_frame")
	if err != nil {
		return nil, err
	}
	eIdx, err := t.require("end_frame")
	if err != nil {
		return nil, err
	}

	var out []gaze.Segment
	for i, row := range t.rows {
		start, ok, err := t.integer(row, sIdx, i)
		if err != nil {
			return nil, err
		}
		// -1 marks a segment that was never cut
		if !ok || start < 0 {
			continue
		}
		end, ok, err := t.integer(row, eIdx, i)
		if err != nil {
			return nil, err
		}
		if !ok || end < 0 {
			continue
		}
		out = append(out, gaze.Segment{Name: cell(row, nIdx), StartFrame: int(start), EndFrame: int(end)})
	}
	if err := gaze.ValidateSegments(out); err != nil {
		return nil, fmt.Errorf("%s: %w", t.path, err)
	}
	return out, nil
}
