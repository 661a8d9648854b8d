package filedepot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LocatorKind discriminates the three ways a caller can address records.
type LocatorKind int

const (
	// LocateByID addresses exactly one record by its generated identifier.
	LocateByID LocatorKind = iota
	// LocateByPath addresses exactly one record by its full path.
	LocateByPath
	// LocateByPrefix addresses every record whose path starts with the
	// given prefix (identifier ended with the path separator).
	LocateByPrefix
)

// Locator is the parsed form of a caller-supplied identifier. Parsing
// happens once at the boundary; lower layers never re-sniff the raw string.
type Locator struct {
	Kind LocatorKind
	ID   uuid.UUID
	Path string
}

// ParseLocator classifies an identifier as a record ID, an exact path, or
// a directory prefix. Returns ErrInvalidIdentifier for anything that is
// neither a UUID nor a valid path.
func ParseLocator(identifier string) (Locator, error) {
	if identifier == "" {
		return Locator{}, fmt.Errorf("parse locator: %w: empty identifier", ErrInvalidIdentifier)
	}

	if id, err := uuid.Parse(identifier); err == nil {
		return Locator{Kind: LocateByID, ID: id}, nil
	}

	if strings.HasSuffix(identifier, "/") {
		if identifier == "/" {
			// Root prefix matches every record.
			return Locator{Kind: LocateByPrefix, Path: ""}, nil
		}
		if !IsValidPath(strings.TrimSuffix(identifier, "/")) {
			return Locator{}, fmt.Errorf("parse locator %q: %w", identifier, ErrInvalidIdentifier)
		}
		return Locator{Kind: LocateByPrefix, Path: identifier}, nil
	}

	if !IsValidPath(identifier) {
		return Locator{}, fmt.Errorf("parse locator %q: %w", identifier, ErrInvalidIdentifier)
	}

	return Locator{Kind: LocateByPath, Path: identifier}, nil
}
