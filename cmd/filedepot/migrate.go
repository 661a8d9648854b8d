package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot/config"
	"github.com/ykulikov/filedepot/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	Long: `Connect to the configured metadata database, apply migrations,
validate the resulting schema, and exit. Useful in deploy pipelines where
schema changes should land before the gateway restarts.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	// Connect migrates and validates as part of setup.
	_, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	defer closeDB()

	slog.Info("database migration complete", "type", cfg.Database.Type)
	return nil
}
