package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
)

// ExportSegment names the single cut point WriteExport records.
const ExportSegment = "fast"

// WriteExport renders the session below dir as a recording export that
// ingest.Load reads back: world timeline, gaze, eye states, surface
// corners, target detections and one cut point spanning every frame.
func WriteExport(fsys fsutil.FileSystem, dir string, s Session) error {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return err
	}
	frames := s.Frames()

	world := [][]string{{"world_index", "timestamp [ns]"}}
	gazeRows := [][]string{{"timestamp [ns]", "gaze detected on surface",
		"gaze position on surface x [normalized]", "gaze position on surface y [normalized]"}}
	eyes := [][]string{{"timestamp [ns]", "pupil diameter left [mm]", "pupil diameter right [mm]"}}
	surfaces := [][]string{{"world_index",
		"tl x [px]", "tl y [px]", "tr x [px]", "tr y [px]",
		"br x [px]", "br y [px]", "bl x [px]", "bl y [px]"}}
	targets := [][]string{{"frame", "ball_center_x_norm", "ball_center_y_norm", "ball_w_norm", "ball_h_norm", "segment_name"}}

	for _, f := range frames {
		frame := strconv.Itoa(f.Frame)
		ts := strconv.FormatInt(f.TimestampNs, 10)
		world = append(world, []string{frame, ts})
		if f.Gaze != nil {
			gazeRows = append(gazeRows, []string{ts, "true", num(f.Gaze.X), num(f.Gaze.Y)})
		}
		if f.PupilDiameter != nil {
			eyes = append(eyes, []string{ts, num(*f.PupilDiameter), num(*f.PupilDiameter)})
		}
		if c := f.Corners; c != nil {
			row := []string{frame}
			for _, p := range c.Points() {
				row = append(row, num(p.X), num(p.Y))
			}
			surfaces = append(surfaces, row)
		}
		row := []string{frame, "", "", "", "", ExportSegment}
		if f.TargetCenter != nil {
			row[1], row[2] = num(f.TargetCenter.X), num(f.TargetCenter.Y)
		}
		if f.TargetSize != nil {
			row[3], row[4] = num(f.TargetSize.W), num(f.TargetSize.H)
		}
		targets = append(targets, row)
	}

	last := s.StartFrame
	if len(frames) > 0 {
		last = frames[len(frames)-1].Frame
	}
	cuts := [][]string{
		{"segment_name", "start_frame", "end_frame"},
		{ExportSegment, strconv.Itoa(s.StartFrame), strconv.Itoa(last)},
		{"slow", "-1", "-1"},
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{"world_timestamps.csv", world},
		{"gaze.csv", gazeRows},
		{"3d_eye_states.csv", eyes},
		{"surface_positions.csv", surfaces},
		{"p01_analysis.csv", targets},
		{"cut_points.csv", cuts},
	}
	for _, f := range files {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.WriteAll(f.rows); err != nil {
			return fmt.Errorf("encode %s: %w", f.name, err)
		}
		if err := fsys.WriteFile(filepath.Join(dir, f.name), buf.Bytes(), 0644); err != nil {
			return err
		}
	}
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportSegments is the segment list WriteExport's cut points describe.
func (s Session) ExportSegments() []gaze.Segment {
	return []gaze.Segment{{Name: ExportSegment, StartFrame: s.StartFrame, EndFrame: s.StartFrame + s.TotalFrames() - 1}}
}
