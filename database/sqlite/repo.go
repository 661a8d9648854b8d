// Package sqlite implements the file metadata repository using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ykulikov/filedepot"
	"modernc.org/sqlite"
)

// SQLite has no built-in REGEXP; register one backed by Go's regexp so the
// search engine's regex mode works identically to the postgres backend.
// The engine rewrites `X REGEXP Y` to `regexp(Y, X)`.
//
// The built-in lower() only folds ASCII, so substring search also gets a
// Go-backed lower_unicode() that folds the full range (Cyrillic names are a
// normal case in this domain).
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2,
		func(fctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			pattern, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("regexp: pattern must be text")
			}

			subject, skip := stringArg(args[1])
			if skip {
				return int64(0), nil
			}

			re, err := regexp.CompilePOSIX(pattern)
			if err != nil {
				return nil, fmt.Errorf("regexp: %w", err)
			}

			if re.MatchString(subject) {
				return int64(1), nil
			}
			return int64(0), nil
		})

	sqlite.MustRegisterDeterministicScalarFunction("lower_unicode", 1,
		func(fctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			subject, skip := stringArg(args[0])
			if skip {
				return nil, nil
			}
			return strings.ToLower(subject), nil
		})
}

// stringArg coerces a SQLite value to text; the bool result reports NULL.
func stringArg(v driver.Value) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, false
	case int64:
		return fmt.Sprintf("%d", s), false
	case nil:
		return "", true
	default:
		return fmt.Sprintf("%v", s), false
	}
}

const recordColumns = "id, name, path, size, content_type, extension, owner_id, created_at, is_downloadable"

type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables filedepot.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.Files}, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (filedepot.FileRecord, error) {
	var m filedepot.FileRecord
	var idStr, createdAt string
	var ownerStr sql.NullString
	var downloadable int64

	err := row.Scan(
		&idStr, &m.Name, &m.Path, &m.Size, &m.ContentType, &m.Extension,
		&ownerStr, &createdAt, &downloadable,
	)
	if err != nil {
		return filedepot.FileRecord{}, err
	}

	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return filedepot.FileRecord{}, fmt.Errorf("parse uuid: %w", err)
	}

	if ownerStr.Valid {
		ownerID, err := uuid.Parse(ownerStr.String)
		if err != nil {
			return filedepot.FileRecord{}, fmt.Errorf("parse owner uuid: %w", err)
		}
		m.OwnerID = &ownerID
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return filedepot.FileRecord{}, fmt.Errorf("parse created_at: %w", err)
	}

	m.IsDownloadable = downloadable != 0

	return m, nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (filedepot.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE id = ? AND owner_id = ?`, recordColumns, r.tableName)

	m, err := scanRecord(r.db.QueryRowContext(ctx, query, id.String(), ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filedepot.FileRecord{}, filedepot.ErrNotFound
		}
		return filedepot.FileRecord{}, fmt.Errorf("get by id: %w", err)
	}

	return m, nil
}

func (r *Repo) GetByPath(ctx context.Context, path string, ownerID uuid.UUID) (filedepot.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE path = ? AND owner_id = ?`, recordColumns, r.tableName)

	m, err := scanRecord(r.db.QueryRowContext(ctx, query, path, ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filedepot.FileRecord{}, filedepot.ErrNotFound
		}
		return filedepot.FileRecord{}, fmt.Errorf("get by path: %w", err)
	}

	return m, nil
}

func (r *Repo) ListByPrefix(ctx context.Context, prefix string, ownerID uuid.UUID) ([]filedepot.FileRecord, error) {
	// SQLite's LIKE folds ASCII case, which would over-match the prefix;
	// substr keeps the comparison byte-exact like the postgres backend.
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE owner_id = ? AND substr(path, 1, length(?)) = ?
		ORDER BY path`, recordColumns, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, ownerID.String(), prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list by prefix: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRecords(rows, "list by prefix", 0)
}

// Upsert inserts or overwrites the record keyed by (owner_id, path). On
// conflict the existing row is updated in place, so the id survives while
// created_at advances to the time of this upload.
func (r *Repo) Upsert(ctx context.Context, entry filedepot.UploadEntry) (filedepot.FileRecord, bool, error) {
	newID := uuid.New()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, name, path, size, content_type, extension, owner_id, created_at, is_downloadable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (owner_id, path) DO UPDATE
		SET name = excluded.name,
			size = excluded.size,
			content_type = excluded.content_type,
			extension = excluded.extension,
			created_at = excluded.created_at,
			is_downloadable = 1
		RETURNING %s`, r.tableName, recordColumns)

	m, err := scanRecord(r.db.QueryRowContext(ctx, query,
		newID.String(), entry.Name, entry.Path, entry.Size, entry.ContentType,
		entry.Extension, entry.OwnerID.String(), now,
	))
	if err != nil {
		return filedepot.FileRecord{}, false, fmt.Errorf("upsert: %w", err)
	}

	// A conflict keeps the existing row id, so the generated id only comes
	// back on a fresh insert.
	inserted := m.ID == newID

	return m, inserted, nil
}

func (r *Repo) List(ctx context.Context, ownerID uuid.UUID, q filedepot.ListQuery) (filedepot.ListResult, error) {
	cursor, err := filedepot.DecodeCursor(q.Cursor)
	if err != nil {
		return filedepot.ListResult{}, fmt.Errorf("list: %w", err)
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE owner_id = ? AND substr(path, 1, length(?)) = ?
			ORDER BY created_at, path
			LIMIT ?`, recordColumns, r.tableName)
		args = []any{ownerID.String(), q.PathPrefix, q.PathPrefix, q.Limit + 1}
	} else {
		query = fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`SELECT %s FROM %s
			WHERE owner_id = ? AND substr(path, 1, length(?)) = ? AND (created_at, path) > (?, ?)
			ORDER BY created_at, path
			LIMIT ?`, recordColumns, r.tableName)
		args = []any{ownerID.String(), q.PathPrefix, q.PathPrefix, cursor.CreatedAt.Format(time.RFC3339Nano), cursor.Path, q.Limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return filedepot.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func collectRecords(rows *sql.Rows, opName string, capacity int) ([]filedepot.FileRecord, error) {
	items := make([]filedepot.FileRecord, 0, capacity)
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opName, err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", opName, err)
	}

	return items, nil
}
