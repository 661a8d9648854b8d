package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	downloadOutput  string
	downloadStdout  bool
	downloadArchive bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <identifier> [local-path]",
	Short: "Download a file or archive from the server",
	Long: `Download a file or archive from the server.

The identifier can be a file path, a record UUID, or a directory
prefix ending in "/". A prefix, or the --archive flag, fetches a zip
archive of every file underneath it.

Examples:
  filedepot-cli download docs/report.pdf
  filedepot-cli download docs/report.pdf ./local.pdf
  filedepot-cli download docs/ --output docs.zip
  filedepot-cli download --stdout config.json | jq .`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
	downloadCmd.Flags().BoolVar(&downloadArchive, "archive", false, "force a zip archive even for a single file")
}

func runDownload(_ *cobra.Command, args []string) error {
	identifier := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	result, err := c.Download(context.Background(), identifier, downloadArchive)
	if err != nil {
		return err
	}
	defer func() { _ = result.Body.Close() }()

	if localPath == "" {
		localPath = result.Filename
	}
	if localPath == "" {
		localPath = filepath.Base(strings.TrimSuffix(identifier, "/"))
	}

	var dst io.Writer
	if localPath == "-" {
		dst = os.Stdout
	} else {
		f, createErr := os.Create(localPath)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", localPath, createErr)
		}
		defer func() { _ = f.Close() }()
		dst = f
	}

	written, err := io.Copy(dst, result.Body)
	if err != nil {
		return fmt.Errorf("download %s: %w", identifier, err)
	}

	if localPath != "-" && !quiet {
		fmt.Printf("downloaded %s (%d bytes)\n", localPath, written)
	}
	return nil
}
