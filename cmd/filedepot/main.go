package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filedepot",
	Short:   "Multi-tenant file storage gateway",
	Long: `Filedepot is a path-addressed file storage gateway that keeps blob
bytes in an object store (S3-compatible or local filesystem) and searchable
metadata in SQLite or PostgreSQL.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "configure" {
			// configure writes the config file; it must not require one.
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (env: FILEDEPOT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: FILEDEPOT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "storage backend: filesystem, s3 (env: FILEDEPOT_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (env: FILEDEPOT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("auth-secret", "", "token signing secret (env: FILEDEPOT_AUTH_SECRET)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var files []string
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		files = append(files, configFile)
	}
	return config.Load(files, cmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
