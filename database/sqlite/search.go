package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ykulikov/filedepot"
)

// searchColumns is the static set of column expressions free-text search
// matches against; non-text columns are cast explicitly. Mirrors the
// postgres backend.
var searchColumns = []string{
	"name",
	"path",
	"content_type",
	"extension",
	"id",
	"CAST(size AS TEXT)",
	"created_at",
}

// Search applies owner scope, path prefix, extension substring, and free
// text across all searchable columns. Substring matches fold case through
// the registered lower_unicode() function (the built-in lower() is
// ASCII-only); regex matches go through the registered regexp() function.
// The order-by column comes from the whitelist only.
func (r *Repo) Search(ctx context.Context, q filedepot.SearchQuery) ([]filedepot.FileRecord, error) {
	if !filedepot.IsValidOrderKey(q.OrderBy) {
		return nil, fmt.Errorf("search: %w: unknown order key %q", filedepot.ErrInvalidInput, q.OrderBy)
	}

	conds := []string{"owner_id = ?"}
	args := []any{q.OwnerID.String()}

	if q.PathPrefix != "" {
		// LIKE folds ASCII case; substr keeps the prefix byte-exact.
		conds = append(conds, "substr(path, 1, length(?)) = ?")
		args = append(args, q.PathPrefix, q.PathPrefix)
	}

	if q.Extension != "" {
		conds = append(conds, "instr(lower_unicode(extension), lower_unicode(?)) > 0")
		args = append(args, q.Extension)
	}

	if q.Query != "" {
		ors := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			if q.Regex {
				ors[i] = fmt.Sprintf("%s REGEXP ?", col)
			} else {
				ors[i] = fmt.Sprintf("instr(lower_unicode(%s), lower_unicode(?)) > 0", col)
			}
			args = append(args, q.Query)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	args = append(args, q.Limit)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated, order key is whitelisted
		`SELECT %s FROM %s
		WHERE %s
		ORDER BY %s, path
		LIMIT ?`, recordColumns, r.tableName, strings.Join(conds, " AND "), q.OrderBy)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRecords(rows, "search", q.Limit)
}
