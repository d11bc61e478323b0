package main

import (
	"fmt"

	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the analysis database schema",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "gaze.db", "SQLite database path")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(dbPath, func(database *db.DB) error {
					if err := database.MigrateUp(db.Migrations()); err != nil {
						return err
					}
					return printStatus(cmd, database)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(dbPath, func(database *db.DB) error {
					if err := database.MigrateDown(db.Migrations()); err != nil {
						return err
					}
					return printStatus(cmd, database)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current and latest schema versions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(dbPath, func(database *db.DB) error {
					return printStatus(cmd, database)
				})
			},
		},
	)
	return cmd
}

// withDB opens the database without migrating it.
func withDB(dbPath string, fn func(*db.DB) error) error {
	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	return fn(database)
}

func printStatus(cmd *cobra.Command, database *db.DB) error {
	status, err := database.GetMigrationStatus(db.Migrations())
	if err != nil {
		return err
	}
	state := "up to date"
	switch {
	case status.Dirty:
		state = "dirty"
	case status.Pending():
		state = fmt.Sprintf("%d pending", status.Latest-status.Current)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (%s)\n", status.Current, status.Latest, state)
	return nil
}
