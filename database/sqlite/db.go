package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ykulikov/filedepot"
)

var filesTableColumns = map[string]string{
	"id":              "text",
	"name":            "text",
	"path":            "text",
	"size":            "integer",
	"content_type":    "text",
	"extension":       "text",
	"owner_id":        "text",
	"created_at":      "text",
	"is_downloadable": "integer",
}

// ValidateSchema checks that the files table exists and carries the
// expected columns, using PRAGMA table_info.
func ValidateSchema(ctx context.Context, db *sql.DB, tables filedepot.Tables) error {
	if !filedepot.IsValidTableName(tables.Files) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Files)
	}

	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(tables.Files))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]string)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("validate schema: scan: %w", err)
		}
		actual[name] = strings.ToLower(colType)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: rows: %w", err)
	}

	if len(actual) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", tables.Files)
	}

	var problems []string
	for name, expected := range filesTableColumns {
		colType, ok := actual[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing column %s", name))
			continue
		}
		if colType != expected {
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", name, expected, colType))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("validate schema: table %s: %s", tables.Files, strings.Join(problems, "; "))
	}

	return nil
}
