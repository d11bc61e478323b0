package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/gaze.report/internal/api"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze/storage/sqlite"
	"github.com/banshee-data/gaze.report/internal/units"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var dbPath, tz string
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List analysis runs stored in a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := units.LoadTimezone(tz)
			if err != nil {
				return err
			}
			return withStore(dbPath, a, func(store *sqlite.RunStore) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printRuns(cmd.OutOrStdout(), runs, loc)
			})
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "gaze.db", "SQLite database path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "Timezone for the CREATED column (tz database name or \"local\")")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one stored run with its trials and summaries as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(dbPath, a, func(store *sqlite.RunStore) error {
				detail, err := api.LoadRunDetail(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(detail)
			})
		},
	})
	return cmd
}

func withStore(dbPath string, a *app, fn func(*sqlite.RunStore) error) error {
	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	return fn(sqlite.NewRunStore(database.DB, a.clock))
}

func printRuns(w io.Writer, runs []*sqlite.Run, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSOURCE\tFRAMES\tTRIALS\tTRUNCATED\tMISMATCHES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.RunID,
			units.FormatUnixNano(r.CreatedAt, loc),
			r.Source,
			r.Stats.Frames,
			r.Stats.Trials,
			r.Stats.Truncated,
			r.Stats.SequenceFails,
		)
	}
	return tw.Flush()
}
