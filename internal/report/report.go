package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/security"
	"github.com/klauspost/compress/zstd"
)

// Options controls which outputs Write produces.
type Options struct {
	// CompressFrames writes the per-frame table as frames.csv.zst.
	CompressFrames bool
	// Plots enables the PNG plots and the HTML summary page.
	Plots bool
	// Title is shown on the HTML summary page.
	Title string
}

// Summary is the JSON document written alongside the tables.
type Summary struct {
	RunID       string                    `json:"run_id,omitempty"`
	Segments    []gaze.Segment            `json:"segments"`
	Stats       pipeline.Stats            `json:"stats"`
	Summary     l6summary.Report          `json:"summary"`
	Sequences   []l6summary.SequenceCheck `json:"sequences"`
	Diagnostics map[gaze.Kind]int         `json:"diagnostic_counts"`
}

// Write renders every output of res into dir and returns the paths
// written, in order.
func Write(fsys fsutil.FileSystem, dir, runID string, res *pipeline.Result, o Options) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	emit := func(name string, compress bool, fn func(io.Writer) error) error {
		path, err := security.JoinWithin(dir, name)
		if err != nil {
			return err
		}
		if compress {
			path += ".zst"
		}
		if err := writeFile(fsys, path, compress, fn); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	steps := []struct {
		name     string
		compress bool
		fn       func(io.Writer) error
	}{
		{"frames.csv", o.CompressFrames, func(w io.Writer) error { return WriteFrames(w, res.Frames, res.Trials) }},
		{"trials.csv", false, func(w io.Writer) error { return WriteTrials(w, res.Trials) }},
		{"summaries.csv", false, func(w io.Writer) error { return WriteSummaries(w, res.Summary) }},
		{"sequences.csv", false, func(w io.Writer) error { return WriteSequences(w, res.Sequences) }},
		{"diagnostics.csv", false, func(w io.Writer) error { return WriteDiagnostics(w, res.Diagnostics) }},
		{"summary.json", false, func(w io.Writer) error { return writeJSON(w, runID, res) }},
	}
	for _, s := range steps {
		if err := emit(s.name, s.compress, s.fn); err != nil {
			return written, err
		}
	}

	if o.Plots {
		title := o.Title
		if title == "" {
			title = "Gaze report"
		}
		if err := emit("summary.html", false, func(w io.Writer) error { return SummaryPage(w, res.Summary, title) }); err != nil {
			return written, err
		}
		paths, err := writePlots(fsys, filepath.Join(dir, "plots"), res)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}

	monitoring.Logf("wrote %d report files to %s", len(written), dir)
	return written, nil
}

func writePlots(fsys fsutil.FileSystem, dir string, res *pipeline.Result) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	segments := make([]string, 0, len(res.Segments)+1)
	for _, s := range res.Segments {
		segments = append(segments, s.Name)
	}
	segments = append(segments, "")

	var written []string
	for _, seg := range segments {
		slug := slugify(seg)
		plots := []struct {
			name string
			fn   func(io.Writer) (bool, error)
		}{
			{"pupil_trend_" + slug + ".png", func(w io.Writer) (bool, error) { return PupilTrendPlot(w, res.Trends, seg) }},
			{"gaze_" + slug + ".png", func(w io.Writer) (bool, error) { return GazeScatterPlot(w, res.Frames, seg) }},
			{"heatmap_" + slug + ".png", func(w io.Writer) (bool, error) {
				return GazeHeatmapPlot(w, res.Frames, seg, gaze.DirectionNone)
			}},
		}
		for _, d := range gaze.Directions {
			plots = append(plots, struct {
				name string
				fn   func(io.Writer) (bool, error)
			}{
				"heatmap_" + slug + "_" + string(d) + ".png",
				func(w io.Writer) (bool, error) { return GazeHeatmapPlot(w, res.Frames, seg, d) },
			})
		}
		for _, p := range plots {
			// render first so empty plots leave no file behind
			var buf bytes.Buffer
			ok, err := p.fn(&buf)
			if err != nil {
				return written, fmt.Errorf("plot %s: %w", p.name, err)
			}
			if !ok {
				continue
			}
			path, err := security.JoinWithin(dir, p.name)
			if err != nil {
				return written, err
			}
			if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeFile(fsys fsutil.FileSystem, path string, compress bool, fn func(io.Writer) error) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !compress {
		return fn(f)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := fn(enc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func writeJSON(w io.Writer, runID string, res *pipeline.Result) error {
	doc := Summary{
		RunID:       runID,
		Segments:    res.Segments,
		Stats:       res.Stats,
		Summary:     res.Summary,
		Sequences:   res.Sequences,
		Diagnostics: map[gaze.Kind]int{},
	}
	for _, d := range res.Diagnostics {
		doc.Diagnostics[d.Kind]++
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func slugify(segment string) string {
	if segment == "" {
		return "unsegmented"
	}
	if s := security.SanitizeFilename(strings.ToLower(segment)); s != "" {
		return s
	}
	return "segment"
}
