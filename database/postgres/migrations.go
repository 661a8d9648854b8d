package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ykulikov/filedepot"
)

// Migrate creates the files table and its indexes. The per-owner unique
// path index is the conflict target for Upsert; the owner index carries
// listing and search.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filedepot.Tables) error {
	if err := createFilesTable(ctx, pool, tables.Files); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DropTables removes the files table. Used by tests for isolation.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filedepot.Tables) error {
	quotedTable := pgx.Identifier{tables.Files}.Sanitize()

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("drop table %s: %w", tables.Files, err)
	}
	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexOwnerPath := pgx.Identifier{fmt.Sprintf("idx_%s_owner_path", tableName)}.Sanitize()
	indexOwner := pgx.Identifier{fmt.Sprintf("idx_%s_owner", tableName)}.Sanitize()
	indexOwnerList := pgx.Identifier{fmt.Sprintf("idx_%s_owner_list", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			size BIGINT NOT NULL DEFAULT 0,
			content_type TEXT NOT NULL DEFAULT '',
			extension TEXT NOT NULL DEFAULT '',
			owner_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_downloadable BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE UNIQUE INDEX IF NOT EXISTS %s
		ON %s (owner_id, path);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (owner_id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (owner_id, created_at, path);
	`,
		quotedTable,
		indexOwnerPath, quotedTable,
		indexOwner, quotedTable,
		indexOwnerList, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}
