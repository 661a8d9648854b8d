// Package filesystem provides a local object store adapter, mainly for
// development and tests. Writes are atomic (temp file plus rename) and all
// operations are sandboxed under an os.Root to prevent path traversal.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ykulikov/filedepot"
)

// Store implements filedepot.ObjectStore on the local filesystem.
type Store struct {
	root *os.Root
}

// New creates a Store rooted at the given directory.
func New(root *os.Root) *Store {
	return &Store{root: root}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to the given key using a temp file and
// rename, creating intermediate directories as needed. The size argument is
// checked against the bytes actually copied; contentType is not persisted,
// the metadata repository owns it.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return fmt.Errorf("could not copy contents: %w", err)
	}

	if written != size {
		return fmt.Errorf("short write: expected %d bytes, wrote %d", size, written)
	}

	if err = t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return nil
}

// Get opens an object for reading. Returns filedepot.ErrNotFound if the key
// does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, filedepot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
