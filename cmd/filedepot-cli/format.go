package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ykulikov/filedepot"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(w io.Writer, records []filedepot.FileRecord) error {
	if jsonOutput {
		return printJSON(w, records)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if !quiet {
		fmt.Fprintln(tw, "PATH\tSIZE\tTYPE\tCREATED")
	}
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Path, r.Size, r.ContentType, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
