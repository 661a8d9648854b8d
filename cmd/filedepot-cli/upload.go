package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> <remote-path>",
	Short: "Upload a file to the server",
	Long: `Upload a file to the server.

A remote path ending in "/" stores the file under its local basename
inside that directory. Uploading to an existing path overwrites the
content and keeps the record's identifier.

Examples:
  filedepot-cli upload ./report.pdf docs/report.pdf
  filedepot-cli upload ./report.pdf docs/`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func runUpload(_ *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	record, err := c.Upload(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, record)
	}
	if !quiet {
		fmt.Printf("uploaded %s (%d bytes, id %s)\n", record.Path, record.Size, record.ID)
	}
	return nil
}
