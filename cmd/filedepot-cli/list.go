package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot"
)

var (
	listPrefix string
	listLimit  int
	listAll    bool
	listCursor string
)

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List files on the server",
	Long: `List your files on the server, ordered by upload time.

Examples:
  filedepot-cli list
  filedepot-cli list docs/
  filedepot-cli list --limit 10
  filedepot-cli list --all
  filedepot-cli list --cursor "eyJjcmVhdGVkX2F0Ijoi..."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "filter by path prefix")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "max results per page (max: 1000)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch all pages")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "pagination cursor")
}

func runList(_ *cobra.Command, args []string) error {
	prefix := listPrefix
	if len(args) > 0 {
		prefix = args[0]
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	cursor := listCursor

	var items []filedepot.FileRecord
	nextCursor := ""
	for {
		page, listErr := c.List(ctx, prefix, cursor, listLimit)
		if listErr != nil {
			return listErr
		}
		items = append(items, page.Items...)
		nextCursor = page.NextCursor
		if !listAll || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	if err := printRecords(os.Stdout, items); err != nil {
		return err
	}
	if !jsonOutput && !quiet && nextCursor != "" {
		fmt.Printf("next cursor: %s\n", nextCursor)
	}
	return nil
}
