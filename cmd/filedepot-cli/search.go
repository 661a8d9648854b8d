package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot/client"
)

var (
	searchQuery      string
	searchRegex      bool
	searchPathPrefix string
	searchExtension  string
	searchOrderBy    string
	searchLimit      int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search file metadata on the server",
	Long: `Search your files by name and path metadata.

The query matches name and path as a case-insensitive substring, or as
a POSIX regular expression with --regex. Filters combine with AND.

Examples:
  filedepot-cli search report
  filedepot-cli search --regex 'app-2024-[0-9]+'
  filedepot-cli search --path-prefix docs/ --extension pdf
  filedepot-cli search report --order-by size --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery, "query", "", "substring or regex to match against name and path")
	searchCmd.Flags().BoolVar(&searchRegex, "regex", false, "treat the query as a POSIX regular expression")
	searchCmd.Flags().StringVar(&searchPathPrefix, "path-prefix", "", "restrict matches to this path prefix")
	searchCmd.Flags().StringVar(&searchExtension, "extension", "", "filter by file extension")
	searchCmd.Flags().StringVar(&searchOrderBy, "order-by", "", "sort key: created_at, name, path, or size")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "max results (max: 1000)")
}

func runSearch(_ *cobra.Command, args []string) error {
	query := searchQuery
	if len(args) > 0 {
		query = args[0]
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	records, err := c.Search(context.Background(), client.SearchOptions{
		Query:      query,
		Regex:      searchRegex,
		PathPrefix: searchPathPrefix,
		Extension:  searchExtension,
		OrderBy:    searchOrderBy,
		Limit:      searchLimit,
	})
	if err != nil {
		return err
	}

	return printRecords(os.Stdout, records)
}
