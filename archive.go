package filedepot

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
)

const (
	archiveFilename    = "archive.zip"
	archiveContentType = "application/zip"
)

// archiveStream assembles a zip archive incrementally over a pipe. Source
// streams are opened one at a time and copied straight into the encoder, so
// no entry is ever fully held in memory and at most one object-store
// connection is open at once. Entry n+1 is not started until entry n's
// stream is exhausted.
//
// Failures after bytes have been flushed leave the caller with a truncated
// archive; the pipe is closed with the error so the reader sees it instead
// of a clean EOF.
func (s *Service) archiveStream(ctx context.Context, records []FileRecord) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		zw := zip.NewWriter(pw)

		for _, record := range records {
			if err := ctx.Err(); err != nil {
				pw.CloseWithError(fmt.Errorf("archive: %w", err))
				return
			}

			src, err := s.store.Get(ctx, record.Path)
			if err != nil {
				pw.CloseWithError(fmt.Errorf("archive %s: %w: %v", record.Path, ErrDownloadFailed, err))
				return
			}

			entry, err := zw.CreateHeader(&zip.FileHeader{
				Name:     record.Path,
				Method:   zip.Deflate,
				Modified: record.CreatedAt,
			})
			if err != nil {
				closeSource(src, record.Path)
				pw.CloseWithError(fmt.Errorf("archive %s: %w", record.Path, err))
				return
			}

			if _, err := io.Copy(entry, src); err != nil {
				closeSource(src, record.Path)
				pw.CloseWithError(fmt.Errorf("archive %s: %w: %v", record.Path, ErrDownloadFailed, err))
				return
			}

			closeSource(src, record.Path)
		}

		if err := zw.Close(); err != nil {
			pw.CloseWithError(fmt.Errorf("archive: finalize: %w", err))
			return
		}

		_ = pw.Close()
	}()

	return pr
}

func closeSource(src io.Closer, path string) {
	if err := src.Close(); err != nil {
		slog.Warn("failed to close source stream", "path", path, "err", err)
	}
}
