package filedepot

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRepo defines the interface for the metadata repository. All lookups
// are owner-scoped: a record owned by another caller is indistinguishable
// from "not found".
//
// All methods accept a context for cancellation and timeout control.
type FileRepo interface {
	// GetByID retrieves the record with the given id owned by ownerID.
	// Returns ErrNotFound when no such record exists for that owner.
	GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (FileRecord, error)

	// GetByPath retrieves the record at the exact path owned by ownerID.
	// Returns ErrNotFound when no such record exists for that owner.
	GetByPath(ctx context.Context, path string, ownerID uuid.UUID) (FileRecord, error)

	// ListByPrefix returns every record owned by ownerID whose path starts
	// with prefix. An empty result is not an error.
	ListByPrefix(ctx context.Context, prefix string, ownerID uuid.UUID) ([]FileRecord, error)

	// List retrieves a cursor-paginated page of the owner's records
	// matching the query criteria.
	List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (ListResult, error)

	// Upsert creates or overwrites the record keyed by (owner_id, path).
	// On conflict the existing row is updated in place: the id survives,
	// created_at is refreshed, and all mutable fields take the new values.
	// The bool result is true when a new record was inserted.
	Upsert(ctx context.Context, entry UploadEntry) (FileRecord, bool, error)

	// Search applies the query's filters (see SearchQuery) and returns up
	// to Limit records ordered by the whitelisted OrderBy column. An empty
	// result is not an error.
	Search(ctx context.Context, q SearchQuery) ([]FileRecord, error)
}

// ObjectStore is the contract over the physical blob store. Keys are the
// records' virtual paths. Implementations signal business failures through
// returned errors only; Get wraps "no such key" in ErrNotFound.
//
// Put requires the content length up front because the backing stores need
// content-length framing; callers size the payload before transmitting.
type ObjectStore interface {
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Cursor represents pagination cursor data for list operations.
type Cursor struct {
	CreatedAt time.Time
	Path      string
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, path string) string {
	data := createdAt.Format(time.RFC3339Nano) + "|" + path
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format")
	}

	if parts[1] == "" {
		return Cursor{}, fmt.Errorf("decode cursor: empty path")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	return Cursor{CreatedAt: createdAt, Path: parts[1]}, nil
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) so prefix
// filters match literally.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
