package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ykulikov/filedepot"
)

// searchColumns is the static set of column expressions free-text search
// matches against. Non-text columns are cast explicitly; nothing here ever
// comes from caller input.
var searchColumns = []string{
	"name",
	"path",
	"content_type",
	"extension",
	"id::text",
	"size::text",
	"created_at::text",
}

// Search builds the filter from the query's components: owner scope always,
// then path prefix, extension substring, and free text across all
// searchable columns (ORed), ANDed together. The order-by column is taken
// from the whitelist only.
func (r *Repo) Search(ctx context.Context, q filedepot.SearchQuery) ([]filedepot.FileRecord, error) {
	if !filedepot.IsValidOrderKey(q.OrderBy) {
		return nil, fmt.Errorf("search: %w: unknown order key %q", filedepot.ErrInvalidInput, q.OrderBy)
	}

	conds := []string{"owner_id = $1"}
	args := []any{q.OwnerID}

	if q.PathPrefix != "" {
		args = append(args, filedepot.EscapeLikePattern(q.PathPrefix))
		conds = append(conds, fmt.Sprintf("path LIKE $%d || '%%'", len(args)))
	}

	if q.Extension != "" {
		args = append(args, "%"+filedepot.EscapeLikePattern(q.Extension)+"%")
		conds = append(conds, fmt.Sprintf("extension ILIKE $%d", len(args)))
	}

	if q.Query != "" {
		var op string
		if q.Regex {
			op = "~"
			args = append(args, q.Query)
		} else {
			op = "ILIKE"
			args = append(args, "%"+filedepot.EscapeLikePattern(q.Query)+"%")
		}

		n := len(args)
		ors := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			ors[i] = fmt.Sprintf("%s %s $%d", col, op, n)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	args = append(args, q.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s, path
		LIMIT $%d
	`, recordColumns, r.tableName, strings.Join(conds, " AND "), q.OrderBy, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows, "search", q.Limit)
}
