package filedepot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/google/uuid"
)

// Service is the path-addressed storage and retrieval engine. It owns the
// coordination between the metadata repository and the object store; both
// are injected, never ambient.
type Service struct {
	repo  FileRepo
	store ObjectStore

	defaultSearchLimit int
	maxSearchLimit     int
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	DefaultSearchLimit int // applied when a search passes limit <= 0 (default: 100)
	MaxSearchLimit     int // hard cap on search/list page size (default: 1000)
}

func NewService(repo FileRepo, store ObjectStore, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("new service: repo is nil")
	}
	if store == nil {
		return nil, errors.New("new service: store is nil")
	}

	defaultLimit := cfg.DefaultSearchLimit
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	maxLimit := cfg.MaxSearchLimit
	if maxLimit <= 0 {
		maxLimit = 1000
	}

	return &Service{
		repo:               repo,
		store:              store,
		defaultSearchLimit: defaultLimit,
		maxSearchLimit:     maxLimit,
	}, nil
}

// Ingest stores a named payload at the target path and reconciles the
// metadata record.
//
// A target path ending in the separator means "upload into this directory":
// the payload's own filename is appended to form the object path. The
// payload is sized first (seek to end, rewind) and only then transmitted,
// because the object store requires content-length framing.
//
// The object-store write happens before the metadata upsert. If the write
// fails, no metadata is touched and ErrUploadFailed is returned. If the
// upsert fails after a successful write, the blob is orphaned in the object
// store; the failure is surfaced hard and no cleanup is attempted, since
// the store gives no transactional delete guarantee. The two stores share
// no transaction, so this window is accepted rather than hidden.
func (s *Service) Ingest(ctx context.Context, ownerID uuid.UUID, targetPath, contentType, filename string, content io.ReadSeeker) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("ingest: %w", err)
	}

	if ownerID == uuid.Nil {
		return FileRecord{}, fmt.Errorf("ingest: %w: missing owner", ErrUnauthorized)
	}

	if targetPath == "" {
		return FileRecord{}, fmt.Errorf("ingest: %w: path cannot be empty", ErrInvalidInput)
	}

	finalPath := targetPath
	if finalPath[len(finalPath)-1] == '/' {
		if filename == "" {
			return FileRecord{}, fmt.Errorf("ingest %s: %w: directory target needs a payload filename", targetPath, ErrInvalidInput)
		}
		finalPath += filename
	}

	if !IsValidPath(finalPath) {
		return FileRecord{}, fmt.Errorf("ingest %s: %w", finalPath, ErrInvalidIdentifier)
	}

	size, err := content.Seek(0, io.SeekEnd)
	if err != nil {
		return FileRecord{}, fmt.Errorf("ingest %s: size payload: %w", finalPath, err)
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return FileRecord{}, fmt.Errorf("ingest %s: rewind payload: %w", finalPath, err)
	}

	if putErr := s.store.Put(ctx, finalPath, content, size, contentType); putErr != nil {
		return FileRecord{}, fmt.Errorf("ingest %s: %w: %v", finalPath, ErrUploadFailed, putErr)
	}

	entry := UploadEntry{
		Name:        BaseName(finalPath),
		Path:        finalPath,
		Size:        size,
		ContentType: contentType,
		Extension:   ExtensionOf(finalPath),
		OwnerID:     ownerID,
	}

	record, _, upsertErr := s.repo.Upsert(ctx, entry)
	if upsertErr != nil {
		// The blob is already written; it stays orphaned until the next
		// successful upload to the same path.
		return FileRecord{}, fmt.Errorf("ingest %s: metadata upsert failed after object write: %w", finalPath, upsertErr)
	}

	return record, nil
}

// Resolve turns a caller-supplied identifier into zero, one, or many
// records owned by ownerID.
//
// A UUID identifier or an exact path yields exactly one record or
// ErrNotFound. An identifier ending in the path separator is a directory
// prefix and yields every matching record; an empty prefix result is not
// an error. Resolution never crosses owner scope.
func (s *Service) Resolve(ctx context.Context, ownerID uuid.UUID, identifier string) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("resolve: %w: missing owner", ErrUnauthorized)
	}

	loc, err := ParseLocator(identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	switch loc.Kind {
	case LocateByID:
		record, err := s.repo.GetByID(ctx, loc.ID, ownerID)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", identifier, err)
		}
		return []FileRecord{record}, nil

	case LocateByPrefix:
		records, err := s.repo.ListByPrefix(ctx, loc.Path, ownerID)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", identifier, err)
		}
		return records, nil

	default:
		record, err := s.repo.GetByPath(ctx, loc.Path, ownerID)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", identifier, err)
		}
		return []FileRecord{record}, nil
	}
}

// Download is an outbound byte stream with its presentation headers.
// Size is -1 when the total length is not known up front (archives).
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	Size        int64
}

// Retrieve produces the outbound stream for previously resolved records.
//
// A single record without the archive flag streams straight through from
// the object store. The archive flag, or more than one record, produces a
// streaming zip: entries are encoded strictly one after another and no
// entry is fully buffered. A stream that fails to open surfaces as
// ErrDownloadFailed; mid-archive failures truncate the archive, which the
// caller must treat as a failed download.
func (s *Service) Retrieve(ctx context.Context, records []FileRecord, archive bool) (*Download, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("retrieve: %w", ErrNotFound)
	}

	if !archive && len(records) == 1 {
		record := records[0]

		body, err := s.store.Get(ctx, record.Path)
		if err != nil {
			return nil, fmt.Errorf("retrieve %s: %w: %v", record.Path, ErrDownloadFailed, err)
		}

		contentType := record.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		return &Download{
			Body:        body,
			ContentType: contentType,
			Filename:    SafeFilename(record.Name),
			Size:        record.Size,
		}, nil
	}

	return &Download{
		Body:        s.archiveStream(ctx, records),
		ContentType: archiveContentType,
		Filename:    archiveFilename,
		Size:        -1,
	}, nil
}

// Search runs a metadata search for the query's owner. The order key is
// checked against the static whitelist and the regex is compiled up front,
// so malformed input never reaches query construction.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if q.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("search: %w: missing owner", ErrUnauthorized)
	}

	if q.OrderBy == "" {
		q.OrderBy = DefaultOrderKey
	}
	if !IsValidOrderKey(q.OrderBy) {
		return nil, fmt.Errorf("search: %w: unknown order key %q", ErrInvalidInput, q.OrderBy)
	}

	if q.Regex && q.Query != "" {
		if _, err := regexp.CompilePOSIX(q.Query); err != nil {
			return nil, fmt.Errorf("search: %w: bad regex: %v", ErrInvalidInput, err)
		}
	}

	if q.Limit <= 0 {
		q.Limit = s.defaultSearchLimit
	}
	if q.Limit > s.maxSearchLimit {
		q.Limit = s.maxSearchLimit
	}

	records, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return records, nil
}

// List returns a cursor-paginated page of the owner's records.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list: %w", err)
	}

	if ownerID == uuid.Nil {
		return ListResult{}, fmt.Errorf("list: %w: missing owner", ErrUnauthorized)
	}

	if q.Limit <= 0 {
		q.Limit = s.defaultSearchLimit
	}
	if q.Limit > s.maxSearchLimit {
		q.Limit = s.maxSearchLimit
	}

	result, err := s.repo.List(ctx, ownerID, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list: %w", err)
	}

	return result, nil
}
