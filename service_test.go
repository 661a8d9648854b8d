package filedepot_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ykulikov/filedepot"
)

type SpyFileRepo struct {
	mock.Mock
}

func (s *SpyFileRepo) GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (filedepot.FileRecord, error) {
	args := s.Called(ctx, id, ownerID)
	return args.Get(0).(filedepot.FileRecord), args.Error(1)
}

func (s *SpyFileRepo) GetByPath(ctx context.Context, path string, ownerID uuid.UUID) (filedepot.FileRecord, error) {
	args := s.Called(ctx, path, ownerID)
	return args.Get(0).(filedepot.FileRecord), args.Error(1)
}

func (s *SpyFileRepo) ListByPrefix(ctx context.Context, prefix string, ownerID uuid.UUID) ([]filedepot.FileRecord, error) {
	args := s.Called(ctx, prefix, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filedepot.FileRecord), args.Error(1)
}

func (s *SpyFileRepo) List(ctx context.Context, ownerID uuid.UUID, q filedepot.ListQuery) (filedepot.ListResult, error) {
	args := s.Called(ctx, ownerID, q)
	return args.Get(0).(filedepot.ListResult), args.Error(1)
}

func (s *SpyFileRepo) Upsert(ctx context.Context, entry filedepot.UploadEntry) (filedepot.FileRecord, bool, error) {
	args := s.Called(ctx, entry)
	return args.Get(0).(filedepot.FileRecord), args.Bool(1), args.Error(2)
}

func (s *SpyFileRepo) Search(ctx context.Context, q filedepot.SearchQuery) ([]filedepot.FileRecord, error) {
	args := s.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filedepot.FileRecord), args.Error(1)
}

type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	args := s.Called(ctx, key, content, size, contentType)
	return args.Error(0)
}

func (s *SpyObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := s.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func NewTestService(t *testing.T) (*filedepot.Service, *SpyFileRepo, *SpyObjectStore) {
	t.Helper()
	spyRepo := new(SpyFileRepo)
	spyStore := new(SpyObjectStore)
	s, err := filedepot.NewService(spyRepo, spyStore, filedepot.ServiceConfig{})
	assert.NoError(t, err, "new service")
	return s, spyRepo, spyStore
}

func TestService_Ingest(t *testing.T) {
	owner := uuid.New()

	t.Run("stores blob then upserts metadata", func(t *testing.T) {
		service, repo, store := NewTestService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("hello world"))

		store.On("Put", ctx, "docs/notes.txt", mock.Anything, int64(11), "text/plain").Return(nil)

		expectedEntry := filedepot.UploadEntry{
			Name:        "notes.txt",
			Path:        "docs/notes.txt",
			Size:        11,
			ContentType: "text/plain",
			Extension:   "txt",
			OwnerID:     owner,
		}
		record := filedepot.FileRecord{ID: uuid.New(), Name: "notes.txt", Path: "docs/notes.txt", Size: 11}
		repo.On("Upsert", ctx, expectedEntry).Return(record, true, nil)

		got, err := service.Ingest(ctx, owner, "docs/notes.txt", "text/plain", "ignored.txt", content)
		assert.NoError(t, err)
		assert.Equal(t, record, got)

		store.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("directory target joins payload filename", func(t *testing.T) {
		service, repo, store := NewTestService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("data"))

		store.On("Put", ctx, "docs/report.pdf", mock.Anything, int64(4), "application/pdf").Return(nil)
		repo.On("Upsert", ctx, mock.MatchedBy(func(e filedepot.UploadEntry) bool {
			return e.Path == "docs/report.pdf" && e.Name == "report.pdf" && e.Extension == "pdf"
		})).Return(filedepot.FileRecord{Path: "docs/report.pdf"}, true, nil)

		_, err := service.Ingest(ctx, owner, "docs/", "application/pdf", "report.pdf", content)
		assert.NoError(t, err)

		store.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("directory target without filename rejected", func(t *testing.T) {
		service, repo, store := NewTestService(t)

		_, err := service.Ingest(context.Background(), owner, "docs/", "", "", bytes.NewReader(nil))
		assert.ErrorIs(t, err, filedepot.ErrInvalidInput)

		store.AssertNotCalled(t, "Put")
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("invalid path rejected before store write", func(t *testing.T) {
		service, repo, store := NewTestService(t)

		_, err := service.Ingest(context.Background(), owner, "docs/../secret.txt", "", "x", bytes.NewReader(nil))
		assert.ErrorIs(t, err, filedepot.ErrInvalidIdentifier)

		store.AssertNotCalled(t, "Put")
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("store failure leaves metadata untouched", func(t *testing.T) {
		service, repo, store := NewTestService(t)
		ctx := context.Background()

		store.On("Put", ctx, "a.txt", mock.Anything, int64(1), "").Return(errors.New("bucket gone"))

		_, err := service.Ingest(ctx, owner, "a.txt", "", "a.txt", bytes.NewReader([]byte("x")))
		assert.ErrorIs(t, err, filedepot.ErrUploadFailed)

		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("upsert failure after store write surfaces hard", func(t *testing.T) {
		service, repo, store := NewTestService(t)
		ctx := context.Background()

		store.On("Put", ctx, "a.txt", mock.Anything, int64(1), "").Return(nil)
		repo.On("Upsert", ctx, mock.Anything).Return(filedepot.FileRecord{}, false, errors.New("db down"))

		_, err := service.Ingest(ctx, owner, "a.txt", "", "a.txt", bytes.NewReader([]byte("x")))
		assert.Error(t, err)
	})

	t.Run("missing owner rejected", func(t *testing.T) {
		service, _, _ := NewTestService(t)

		_, err := service.Ingest(context.Background(), uuid.Nil, "a.txt", "", "a.txt", bytes.NewReader(nil))
		assert.ErrorIs(t, err, filedepot.ErrUnauthorized)
	})
}

func TestService_Ingest_OverwriteKeepsID(t *testing.T) {
	service, repo, store := NewTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	recordID := uuid.New()

	store.On("Put", ctx, "a.txt", mock.Anything, mock.Anything, "").Return(nil).Twice()
	repo.On("Upsert", ctx, mock.Anything).
		Return(filedepot.FileRecord{ID: recordID, Path: "a.txt", Size: 3}, true, nil).Once()
	repo.On("Upsert", ctx, mock.Anything).
		Return(filedepot.FileRecord{ID: recordID, Path: "a.txt", Size: 5}, false, nil).Once()

	first, err := service.Ingest(ctx, owner, "a.txt", "", "a.txt", bytes.NewReader([]byte("one")))
	assert.NoError(t, err)

	second, err := service.Ingest(ctx, owner, "a.txt", "", "a.txt", bytes.NewReader([]byte("two!!")))
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.Size)
}

func TestService_Resolve(t *testing.T) {
	owner := uuid.New()

	t.Run("uuid identifier resolves by id", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		id := uuid.New()
		record := filedepot.FileRecord{ID: id, Path: "docs/a.txt"}
		repo.On("GetByID", ctx, id, owner).Return(record, nil)

		records, err := service.Resolve(ctx, owner, id.String())
		assert.NoError(t, err)
		assert.Equal(t, []filedepot.FileRecord{record}, records)

		repo.AssertNotCalled(t, "GetByPath")
	})

	t.Run("exact path resolves single record", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		record := filedepot.FileRecord{ID: uuid.New(), Path: "docs/a.txt"}
		repo.On("GetByPath", ctx, "docs/a.txt", owner).Return(record, nil)

		records, err := service.Resolve(ctx, owner, "docs/a.txt")
		assert.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("trailing slash resolves prefix", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		matches := []filedepot.FileRecord{
			{Path: "docs/a.txt"},
			{Path: "docs/sub/b.txt"},
		}
		repo.On("ListByPrefix", ctx, "docs/", owner).Return(matches, nil)

		records, err := service.Resolve(ctx, owner, "docs/")
		assert.NoError(t, err)
		assert.Equal(t, matches, records)
	})

	t.Run("empty prefix result is not an error", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		repo.On("ListByPrefix", ctx, "empty/", owner).Return([]filedepot.FileRecord{}, nil)

		records, err := service.Resolve(ctx, owner, "empty/")
		assert.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing path surfaces not found", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		repo.On("GetByPath", ctx, "nope.txt", owner).
			Return(filedepot.FileRecord{}, filedepot.ErrNotFound)

		_, err := service.Resolve(ctx, owner, "nope.txt")
		assert.ErrorIs(t, err, filedepot.ErrNotFound)
	})

	t.Run("malformed identifier rejected", func(t *testing.T) {
		service, _, _ := NewTestService(t)

		_, err := service.Resolve(context.Background(), owner, "../escape")
		assert.ErrorIs(t, err, filedepot.ErrInvalidIdentifier)
	})
}

func TestService_Retrieve(t *testing.T) {
	t.Run("single record streams pass-through", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		record := filedepot.FileRecord{
			Name:        "a.txt",
			Path:        "docs/a.txt",
			Size:        5,
			ContentType: "text/plain",
		}
		store.On("Get", ctx, "docs/a.txt").
			Return(io.NopCloser(strings.NewReader("hello")), nil)

		dl, err := service.Retrieve(ctx, []filedepot.FileRecord{record}, false)
		assert.NoError(t, err)
		defer func() { _ = dl.Body.Close() }()

		assert.Equal(t, "text/plain", dl.ContentType)
		assert.Equal(t, "a.txt", dl.Filename)
		assert.Equal(t, int64(5), dl.Size)

		body, err := io.ReadAll(dl.Body)
		assert.NoError(t, err)
		assert.Equal(t, "hello", string(body))
	})

	t.Run("missing content type falls back to octet-stream", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		record := filedepot.FileRecord{Name: "blob", Path: "blob", Size: 1}
		store.On("Get", ctx, "blob").Return(io.NopCloser(strings.NewReader("x")), nil)

		dl, err := service.Retrieve(ctx, []filedepot.FileRecord{record}, false)
		assert.NoError(t, err)
		defer func() { _ = dl.Body.Close() }()

		assert.Equal(t, "application/octet-stream", dl.ContentType)
	})

	t.Run("cyrillic filename transliterated", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		record := filedepot.FileRecord{Name: "отчёт.pdf", Path: "docs/отчёт.pdf", Size: 1}
		store.On("Get", ctx, "docs/отчёт.pdf").Return(io.NopCloser(strings.NewReader("x")), nil)

		dl, err := service.Retrieve(ctx, []filedepot.FileRecord{record}, false)
		assert.NoError(t, err)
		defer func() { _ = dl.Body.Close() }()

		assert.Equal(t, "otchet.pdf", dl.Filename)
	})

	t.Run("no records is not found", func(t *testing.T) {
		service, _, _ := NewTestService(t)

		_, err := service.Retrieve(context.Background(), nil, false)
		assert.ErrorIs(t, err, filedepot.ErrNotFound)
	})

	t.Run("stream open failure maps to download failed", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		record := filedepot.FileRecord{Name: "a.txt", Path: "a.txt"}
		store.On("Get", ctx, "a.txt").Return(nil, errors.New("connection reset"))

		_, err := service.Retrieve(ctx, []filedepot.FileRecord{record}, false)
		assert.ErrorIs(t, err, filedepot.ErrDownloadFailed)
	})
}

func TestService_Retrieve_Archive(t *testing.T) {
	t.Run("multiple records produce a valid zip", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		records := []filedepot.FileRecord{
			{Name: "a.txt", Path: "docs/a.txt", Size: 5},
			{Name: "b.txt", Path: "docs/b.txt", Size: 5},
		}
		store.On("Get", ctx, "docs/a.txt").Return(io.NopCloser(strings.NewReader("alpha")), nil)
		store.On("Get", ctx, "docs/b.txt").Return(io.NopCloser(strings.NewReader("bravo")), nil)

		dl, err := service.Retrieve(ctx, records, false)
		assert.NoError(t, err)
		defer func() { _ = dl.Body.Close() }()

		assert.Equal(t, "application/zip", dl.ContentType)
		assert.Equal(t, "archive.zip", dl.Filename)
		assert.Equal(t, int64(-1), dl.Size)

		raw, err := io.ReadAll(dl.Body)
		assert.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
		assert.NoError(t, err)
		assert.Len(t, zr.File, 2)

		want := map[string]string{"docs/a.txt": "alpha", "docs/b.txt": "bravo"}
		for _, f := range zr.File {
			rc, openErr := f.Open()
			assert.NoError(t, openErr)
			content, readErr := io.ReadAll(rc)
			assert.NoError(t, readErr)
			assert.NoError(t, rc.Close())
			assert.Equal(t, want[f.Name], string(content))
		}

		store.AssertExpectations(t)
	})

	t.Run("archive flag wraps a single record", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		record := filedepot.FileRecord{Name: "a.txt", Path: "a.txt", Size: 1}
		store.On("Get", ctx, "a.txt").Return(io.NopCloser(strings.NewReader("x")), nil)

		dl, err := service.Retrieve(ctx, []filedepot.FileRecord{record}, true)
		assert.NoError(t, err)
		defer func() { _ = dl.Body.Close() }()

		assert.Equal(t, "application/zip", dl.ContentType)

		raw, err := io.ReadAll(dl.Body)
		assert.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
		assert.NoError(t, err)
		assert.Len(t, zr.File, 1)
		assert.Equal(t, "a.txt", zr.File[0].Name)
	})

	t.Run("entry failure truncates the stream with an error", func(t *testing.T) {
		service, _, store := NewTestService(t)
		ctx := context.Background()

		records := []filedepot.FileRecord{
			{Name: "a.txt", Path: "a.txt", Size: 5},
			{Name: "b.txt", Path: "b.txt", Size: 5},
		}
		store.On("Get", ctx, "a.txt").Return(io.NopCloser(strings.NewReader("alpha")), nil)
		store.On("Get", ctx, "b.txt").Return(nil, errors.New("gone"))

		dl, err := service.Retrieve(ctx, records, true)
		assert.NoError(t, err)
		defer func() { _ = dl.Body.Close() }()

		_, err = io.ReadAll(dl.Body)
		assert.ErrorIs(t, err, filedepot.ErrDownloadFailed)
	})
}

func TestService_Search(t *testing.T) {
	owner := uuid.New()

	t.Run("defaults applied", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		repo.On("Search", ctx, mock.MatchedBy(func(q filedepot.SearchQuery) bool {
			return q.OrderBy == "created_at" && q.Limit == 100
		})).Return([]filedepot.FileRecord{}, nil)

		_, err := service.Search(ctx, filedepot.SearchQuery{OwnerID: owner})
		assert.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("limit capped", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		repo.On("Search", ctx, mock.MatchedBy(func(q filedepot.SearchQuery) bool {
			return q.Limit == 1000
		})).Return([]filedepot.FileRecord{}, nil)

		_, err := service.Search(ctx, filedepot.SearchQuery{OwnerID: owner, Limit: 5000})
		assert.NoError(t, err)
	})

	t.Run("unknown order key rejected", func(t *testing.T) {
		service, repo, _ := NewTestService(t)

		_, err := service.Search(context.Background(), filedepot.SearchQuery{
			OwnerID: owner,
			OrderBy: "owner_id; DROP TABLE files",
		})
		assert.ErrorIs(t, err, filedepot.ErrInvalidInput)

		repo.AssertNotCalled(t, "Search")
	})

	t.Run("malformed regex rejected", func(t *testing.T) {
		service, repo, _ := NewTestService(t)

		_, err := service.Search(context.Background(), filedepot.SearchQuery{
			OwnerID: owner,
			Query:   "[unclosed",
			Regex:   true,
		})
		assert.ErrorIs(t, err, filedepot.ErrInvalidInput)

		repo.AssertNotCalled(t, "Search")
	})

	t.Run("missing owner rejected", func(t *testing.T) {
		service, _, _ := NewTestService(t)

		_, err := service.Search(context.Background(), filedepot.SearchQuery{})
		assert.ErrorIs(t, err, filedepot.ErrUnauthorized)
	})
}

func TestService_List(t *testing.T) {
	owner := uuid.New()

	t.Run("delegates with defaults", func(t *testing.T) {
		service, repo, _ := NewTestService(t)
		ctx := context.Background()

		expected := filedepot.ListResult{
			Items:      []filedepot.FileRecord{{Path: "a.txt"}},
			NextCursor: "next",
		}
		repo.On("List", ctx, owner, mock.MatchedBy(func(q filedepot.ListQuery) bool {
			return q.Limit == 100
		})).Return(expected, nil)

		got, err := service.List(ctx, owner, filedepot.ListQuery{})
		assert.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("missing owner rejected", func(t *testing.T) {
		service, _, _ := NewTestService(t)

		_, err := service.List(context.Background(), uuid.Nil, filedepot.ListQuery{})
		assert.ErrorIs(t, err, filedepot.ErrUnauthorized)
	})
}
