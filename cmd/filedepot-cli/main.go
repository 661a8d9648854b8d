package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot/client"
)

var (
	version = "dev"

	server     string
	token      string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "filedepot-cli",
	Version: version,
	Short:   "Client for the filedepot file gateway",
	Long: `filedepot CLI - Client for the filedepot file gateway

Files are addressed by slash-separated paths. Download accepts a path,
a record UUID, or a directory prefix ending in "/"; a prefix (or the
--archive flag) fetches a zip archive of everything underneath it.

Examples:
  filedepot-cli upload ./report.pdf docs/report.pdf
  filedepot-cli download docs/report.pdf
  filedepot-cli download docs/ --output docs.zip
  filedepot-cli list docs/
  filedepot-cli search --query report --extension pdf`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (env: FILEDEPOT_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: FILEDEPOT_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig merges env vars and flags, with flags taking precedence.
func buildConfig() client.Config {
	cfg := client.Config{
		Server: os.Getenv("FILEDEPOT_SERVER"),
		Token:  os.Getenv("FILEDEPOT_TOKEN"),
	}
	if server != "" {
		cfg.Server = server
	}
	if token != "" {
		cfg.Token = token
	}
	if cfg.Server == "" {
		cfg.Server = "http://localhost:5708"
	}
	return cfg
}

func getClient() (*client.Client, error) {
	return client.New(buildConfig())
}
