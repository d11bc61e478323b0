package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"github.com/banshee-data/gaze.report/internal/gaze/storage/sqlite"
	"github.com/banshee-data/gaze.report/internal/ingest"
	"github.com/banshee-data/gaze.report/internal/report"
	"github.com/banshee-data/gaze.report/internal/version"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	out        string
	configPath string
	template   string
	onset      int
	targets    string
	dbPath     string
	compress   bool
	noPlots    bool
	title      string
}

// analysis is what one analyze invocation produced.
type analysis struct {
	RunID   string
	Result  *pipeline.Result
	Written []string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze <export-dir>",
		Short: "Analyze one recording export and write its reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.analyze(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d trials, %d diagnostics\n",
				out.RunID, len(out.Result.Trials), len(out.Result.Diagnostics))
			for _, p := range out.Written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output directory (default <export-dir>/gaze_report)")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Analysis config JSON (default built-in values)")
	cmd.Flags().StringVar(&f.template, "template", "", "Fixed-time template CSV giving segments and expected sequences")
	cmd.Flags().IntVar(&f.onset, "onset", -1, "Frame the template is anchored at (required with --template)")
	cmd.Flags().StringVar(&f.targets, "targets", ingest.DefaultLayout().Targets, "File name pattern of the target-detection table")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "SQLite database to store the run in")
	cmd.Flags().BoolVar(&f.compress, "compress", false, "Write the per-frame table zstd-compressed")
	cmd.Flags().BoolVar(&f.noPlots, "no-plots", false, "Skip the PNG plots and HTML summary")
	cmd.Flags().StringVar(&f.title, "title", "", "Title of the HTML summary (default the export directory name)")
	return cmd
}

func (a *app) analyze(ctx context.Context, dir string, f analyzeFlags) (*analysis, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := a.clock.Now()

	layout := ingest.DefaultLayout()
	layout.Targets = f.targets
	ex, err := ingest.Load(a.fsys, dir, layout)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultAnalysisConfig()
	if f.configPath != "" {
		if cfg, err = config.LoadAnalysisConfig(f.configPath); err != nil {
			return nil, err
		}
	}
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	if f.template != "" {
		if err := a.applyTemplate(&ex.Input, &opts, f.template, f.onset); err != nil {
			return nil, err
		}
	}

	res, err := pipeline.Run(ctx, ex.Input, opts)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", dir, err)
	}

	out := &analysis{RunID: uuid.New().String(), Result: res}
	outDir := f.out
	if outDir == "" {
		outDir = filepath.Join(dir, "gaze_report")
	}
	title := f.title
	if title == "" {
		title = filepath.Base(filepath.Clean(dir))
	}
	out.Written, err = report.Write(a.fsys, outDir, out.RunID, res, report.Options{
		CompressFrames: f.compress,
		Plots:          !f.noPlots,
		Title:          title,
	})
	if err != nil {
		return nil, err
	}

	if f.dbPath != "" {
		if err := a.store(ctx, f.dbPath, dir, cfg, out); err != nil {
			return nil, err
		}
	}

	for _, d := range res.Diagnostics {
		if d.Kind == gaze.KindSequenceMismatch {
			log.Warn().Str("segment", d.Segment).Msg(d.Message)
		}
	}
	log.Info().
		Str("run_id", out.RunID).
		Str("export", dir).
		Int("frames", res.Stats.Frames).
		Int("trials", res.Stats.Trials).
		Int("truncated", res.Stats.Truncated).
		Int("diagnostics", len(res.Diagnostics)).
		Dur("elapsed", a.clock.Since(start)).
		Msg("analysis complete")
	return out, nil
}

// applyTemplate derives segments and expected sequences from a fixed-time
// template. Cut points from the export win over template segments, and
// sequences from the config win over template sequences.
func (a *app) applyTemplate(in *pipeline.Input, opts *pipeline.Options, path string, onset int) error {
	if onset < 0 {
		return fmt.Errorf("--template needs --onset: %w", gaze.ErrInvalidInput)
	}
	tpl, err := ingest.LoadTemplate(a.fsys, path)
	if err != nil {
		return err
	}
	segments, sequences, err := tpl.Apply(onset)
	if err != nil {
		return err
	}
	if len(in.Segments) == 0 {
		in.Segments = segments
	} else {
		log.Info().Int("cut_points", len(in.Segments)).Msg("using export cut points; template segments ignored")
	}
	for seg, dirs := range sequences {
		if _, set := opts.ExpectedSequences[seg]; set {
			continue
		}
		if opts.ExpectedSequences == nil {
			opts.ExpectedSequences = map[string][]gaze.Direction{}
		}
		opts.ExpectedSequences[seg] = dirs
	}
	return nil
}

func (a *app) store(ctx context.Context, dbPath, source string, cfg *config.AnalysisConfig, out *analysis) error {
	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	params, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	run := &sqlite.Run{
		RunID:   out.RunID,
		Source:  source,
		Version: version.String(),
		Params:  params,
	}
	if err := sqlite.NewRunStore(database.DB, a.clock).SaveRun(ctx, run, out.Result); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	log.Info().Str("run_id", run.RunID).Str("db", dbPath).Msg("run stored")
	return nil
}
