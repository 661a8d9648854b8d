package filedepot

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create would violate a uniqueness
	// constraint the caller did not intend to overwrite. The upload path
	// never returns it: re-upload intentionally overwrites.
	ErrConflict = errors.New("conflict")
	// ErrUploadFailed is returned when the object store reports a
	// non-success status on write
	ErrUploadFailed = errors.New("upload failed")
	// ErrDownloadFailed is returned when the object store reports a
	// non-success status on read, including mid-stream termination
	ErrDownloadFailed = errors.New("download failed")
	// ErrInvalidIdentifier is returned for a malformed path or id,
	// rejected before any store access
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
