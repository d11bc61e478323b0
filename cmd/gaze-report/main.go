// Command gaze-report analyzes eye-tracking recordings of moving-target
// trials and writes per-frame, per-trial and summary reports.
package main

import (
	"os"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/timeutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries what the subcommands share; tests swap the filesystem and
// clock.
type app struct {
	fsys  fsutil.FileSystem
	clock timeutil.Clock

	logLevel string
	jsonLogs bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gaze-report",
		Short: "Trial segmentation and gaze metrics for moving-target recordings",
		Long: `gaze-report reads a recording export (world timeline, gaze, eye states,
surface corners and target detections), splits it into trials from the
target's centre-out excursions, and reports gaze-on-target metrics per
trial, per direction and per segment.

Examples:
  gaze-report analyze ./exports/p01 --out ./reports/p01
  gaze-report analyze ./exports/p01 --template template.csv --onset 150 --db gaze.db
  gaze-report runs --db gaze.db
  gaze-report migrate status --db gaze.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			monitoring.Init(a.logLevel, !a.jsonLogs)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (default $"+monitoring.LevelEnv+" or info)")
	root.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "Write logs as JSON lines instead of console output")

	root.AddCommand(
		newAnalyzeCmd(a),
		newRunsCmd(a),
		newMigrateCmd(),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func main() {
	a := &app{fsys: fsutil.OSFileSystem{}, clock: timeutil.RealClock{}}
	if err := newRootCmd(a).Execute(); err != nil {
		log.Error().Err(err).Msg("gaze-report failed")
		os.Exit(1)
	}
}
