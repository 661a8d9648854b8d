// Package postgres implements the file metadata repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ykulikov/filedepot"
)

// Tables is an alias for filedepot.Tables for package compatibility.
type Tables = filedepot.Tables

const recordColumns = "id, name, path, size, content_type, extension, owner_id, created_at, is_downloadable"

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Files}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanRecord(row pgx.Row, m *filedepot.FileRecord) error {
	return row.Scan(
		&m.ID, &m.Name, &m.Path, &m.Size, &m.ContentType, &m.Extension,
		&m.OwnerID, &m.CreatedAt, &m.IsDownloadable,
	)
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (filedepot.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, recordColumns, r.tableName)

	var m filedepot.FileRecord
	err := scanRecord(r.pool.QueryRow(ctx, query, id, ownerID), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filedepot.FileRecord{}, filedepot.ErrNotFound
		}
		return filedepot.FileRecord{}, fmt.Errorf("get by id: %w", err)
	}

	return m, nil
}

func (r *Repo) GetByPath(ctx context.Context, path string, ownerID uuid.UUID) (filedepot.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE path = $1 AND owner_id = $2
	`, recordColumns, r.tableName)

	var m filedepot.FileRecord
	err := scanRecord(r.pool.QueryRow(ctx, query, path, ownerID), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filedepot.FileRecord{}, filedepot.ErrNotFound
		}
		return filedepot.FileRecord{}, fmt.Errorf("get by path: %w", err)
	}

	return m, nil
}

func (r *Repo) ListByPrefix(ctx context.Context, prefix string, ownerID uuid.UUID) ([]filedepot.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND path LIKE $2 || '%%'
		ORDER BY path
	`, recordColumns, r.tableName)

	rows, err := r.pool.Query(ctx, query, ownerID, filedepot.EscapeLikePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("list by prefix: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows, "list by prefix", 0)
}

// Upsert inserts or overwrites the record keyed by (owner_id, path). The
// conflict target is the per-owner unique path index, so a re-upload by the
// same owner updates the existing row in place: the id survives and
// created_at is refreshed to the time of this upload.
func (r *Repo) Upsert(ctx context.Context, entry filedepot.UploadEntry) (filedepot.FileRecord, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, path, size, content_type, extension, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, path) DO UPDATE
		SET name = EXCLUDED.name,
			size = EXCLUDED.size,
			content_type = EXCLUDED.content_type,
			extension = EXCLUDED.extension,
			created_at = NOW(),
			is_downloadable = TRUE
		RETURNING %s, (xmax = 0) AS inserted
	`, r.tableName, recordColumns)

	var m filedepot.FileRecord
	var inserted bool

	err := r.pool.QueryRow(ctx, query,
		entry.Name, entry.Path, entry.Size, entry.ContentType, entry.Extension, entry.OwnerID,
	).Scan(
		&m.ID, &m.Name, &m.Path, &m.Size, &m.ContentType, &m.Extension,
		&m.OwnerID, &m.CreatedAt, &m.IsDownloadable, &inserted,
	)
	if err != nil {
		return filedepot.FileRecord{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, inserted, nil
}

func (r *Repo) List(ctx context.Context, ownerID uuid.UUID, q filedepot.ListQuery) (filedepot.ListResult, error) {
	cursor, err := filedepot.DecodeCursor(q.Cursor)
	if err != nil {
		return filedepot.ListResult{}, fmt.Errorf("list: %w", err)
	}

	escapedPrefix := filedepot.EscapeLikePattern(q.PathPrefix)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND path LIKE $2 || '%%'
			ORDER BY created_at, path
			LIMIT $3
		`, recordColumns, r.tableName)
		args = []any{ownerID, escapedPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND path LIKE $2 || '%%' AND (created_at, path) > ($3, $4)
			ORDER BY created_at, path
			LIMIT $5
		`, recordColumns, r.tableName)
		args = []any{ownerID, escapedPrefix, cursor.CreatedAt, cursor.Path, q.Limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return filedepot.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items, err := collectRecords(rows, "list", q.Limit)
	if err != nil {
		return filedepot.ListResult{}, err
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = filedepot.EncodeCursor(lastItem.CreatedAt, lastItem.Path)
		items = items[:q.Limit]
	}

	return filedepot.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func collectRecords(rows pgx.Rows, opName string, capacity int) ([]filedepot.FileRecord, error) {
	items := make([]filedepot.FileRecord, 0, capacity)
	for rows.Next() {
		var m filedepot.FileRecord
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Path, &m.Size, &m.ContentType, &m.Extension,
			&m.OwnerID, &m.CreatedAt, &m.IsDownloadable,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return items, nil
}
