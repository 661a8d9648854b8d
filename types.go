package filedepot

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// FileRecord is the metadata entry for one stored object. Blob bytes live
// in the object store under the record's path; everything else lives here.
type FileRecord struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Path           string     `json:"path"`
	Size           int64      `json:"size"`
	ContentType    string     `json:"content_type,omitempty"`
	Extension      string     `json:"extension,omitempty"`
	OwnerID        *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	IsDownloadable bool       `json:"is_downloadable"`
}

// UploadEntry carries the fields written on ingest. The repository stores
// it as-is; name and extension are derived by the service beforehand.
type UploadEntry struct {
	Name        string
	Path        string
	Size        int64
	ContentType string
	Extension   string
	OwnerID     uuid.UUID
}

type ListQuery struct {
	PathPrefix string
	Limit      int
	Cursor     string
}

type ListResult struct {
	Items      []FileRecord `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// SearchQuery describes a metadata search. All filters are ANDed; owner
// scoping is mandatory. Query matches any searchable column (ORed), either
// as a case-insensitive substring or, with Regex set, as a POSIX regex.
type SearchQuery struct {
	OwnerID    uuid.UUID
	PathPrefix string
	Extension  string
	Query      string
	Regex      bool
	OrderBy    string
	Limit      int
}

// orderKeys is the whitelist of order-by columns for search. Anything else
// is rejected before query construction; column names never come from
// caller input.
var orderKeys = map[string]struct{}{
	"name":         {},
	"path":         {},
	"size":         {},
	"content_type": {},
	"extension":    {},
	"created_at":   {},
}

const DefaultOrderKey = "created_at"

func IsValidOrderKey(key string) bool {
	_, ok := orderKeys[key]
	return ok
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Files string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Files == "" {
		return errors.New("validate tables: files table name cannot be empty")
	}

	if !IsValidTableName(t.Files) {
		return fmt.Errorf("validate tables: invalid files table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Files)
	}

	return nil
}
