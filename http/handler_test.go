package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ykulikov/filedepot"
	depothttp "github.com/ykulikov/filedepot/http"
)

// staticVerifier resolves every token "good" to a fixed owner.
type staticVerifier struct {
	owner uuid.UUID
}

func (v staticVerifier) Verify(token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, filedepot.ErrUnauthorized
	}
	return v.owner, nil
}

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Ingest(ctx context.Context, ownerID uuid.UUID, targetPath, contentType, filename string, content io.ReadSeeker) (filedepot.FileRecord, error) {
	args := m.Called(ctx, ownerID, targetPath, contentType, filename, content)
	return args.Get(0).(filedepot.FileRecord), args.Error(1)
}

func (m *MockService) Resolve(ctx context.Context, ownerID uuid.UUID, identifier string) ([]filedepot.FileRecord, error) {
	args := m.Called(ctx, ownerID, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filedepot.FileRecord), args.Error(1)
}

func (m *MockService) Retrieve(ctx context.Context, records []filedepot.FileRecord, archive bool) (*filedepot.Download, error) {
	args := m.Called(ctx, records, archive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filedepot.Download), args.Error(1)
}

func (m *MockService) Search(ctx context.Context, q filedepot.SearchQuery) ([]filedepot.FileRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filedepot.FileRecord), args.Error(1)
}

func (m *MockService) List(ctx context.Context, ownerID uuid.UUID, q filedepot.ListQuery) (filedepot.ListResult, error) {
	args := m.Called(ctx, ownerID, q)
	return args.Get(0).(filedepot.ListResult), args.Error(1)
}

func newTestHandler(service depothttp.Service, owner uuid.UUID) http.Handler {
	config := &depothttp.HandlerConfig{Verifier: staticVerifier{owner: owner}}
	return depothttp.NewHandler(config, service).Router()
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer good")
	return req
}

func TestHandler_List(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	expected := filedepot.ListResult{
		Items: []filedepot.FileRecord{
			{
				ID:          uuid.New(),
				Name:        "report.pdf",
				Path:        "docs/report.pdf",
				Size:        100,
				ContentType: "application/pdf",
				Extension:   "pdf",
				CreatedAt:   time.Now(),
			},
		},
		NextCursor: "cursor123",
	}

	service.On("List", mock.Anything, owner, mock.MatchedBy(func(q filedepot.ListQuery) bool {
		return q.PathPrefix == "docs/" && q.Limit == 50
	})).Return(expected, nil)

	req := authed(httptest.NewRequest("GET", "/files/list?prefix=docs/&limit=50", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result filedepot.ListResult
	err := json.NewDecoder(rec.Body).Decode(&result)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Items))
	assert.Equal(t, "docs/report.pdf", result.Items[0].Path)
	assert.Equal(t, "cursor123", result.NextCursor)

	service.AssertExpectations(t)
}

func TestHandler_List_NoToken(t *testing.T) {
	service := new(MockService)
	router := newTestHandler(service, uuid.New())

	req := httptest.NewRequest("GET", "/files/list", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "List")
}

func TestHandler_List_BadToken(t *testing.T) {
	service := new(MockService)
	router := newTestHandler(service, uuid.New())

	req := httptest.NewRequest("GET", "/files/list", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "List")
}

func multipartBody(t *testing.T, path, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	assert.NoError(t, mw.WriteField("path", path))

	part, err := mw.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = part.Write([]byte(content))
	assert.NoError(t, err)

	assert.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_Upload(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	expected := filedepot.FileRecord{
		ID:   uuid.New(),
		Name: "notes.txt",
		Path: "docs/notes.txt",
		Size: 5,
	}

	service.On("Ingest", mock.Anything, owner, "docs/", mock.Anything, "notes.txt", mock.Anything).
		Return(expected, nil)

	body, contentType := multipartBody(t, "docs/", "notes.txt", "hello")
	req := authed(httptest.NewRequest("POST", "/files/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var record filedepot.FileRecord
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	assert.Equal(t, expected.ID, record.ID)
	assert.Equal(t, "docs/notes.txt", record.Path)

	service.AssertExpectations(t)
}

func TestHandler_Upload_MissingPath(t *testing.T) {
	service := new(MockService)
	router := newTestHandler(service, uuid.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	assert.NoError(t, err)
	_, _ = part.Write([]byte("hello"))
	assert.NoError(t, mw.Close())

	req := authed(httptest.NewRequest("POST", "/files/upload", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Ingest")
}

func TestHandler_Upload_MissingFile(t *testing.T) {
	service := new(MockService)
	router := newTestHandler(service, uuid.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	assert.NoError(t, mw.WriteField("path", "docs/notes.txt"))
	assert.NoError(t, mw.Close())

	req := authed(httptest.NewRequest("POST", "/files/upload", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Ingest")
}

func TestHandler_Download_Single(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	record := filedepot.FileRecord{
		ID:          uuid.New(),
		Name:        "notes.txt",
		Path:        "docs/notes.txt",
		Size:        5,
		ContentType: "text/plain",
	}

	service.On("Resolve", mock.Anything, owner, "docs/notes.txt").
		Return([]filedepot.FileRecord{record}, nil)
	service.On("Retrieve", mock.Anything, []filedepot.FileRecord{record}, false).
		Return(&filedepot.Download{
			Body:        io.NopCloser(strings.NewReader("hello")),
			ContentType: "text/plain",
			Filename:    "notes.txt",
			Size:        5,
		}, nil)

	req := authed(httptest.NewRequest("GET", "/files/download?path=docs/notes.txt", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="notes.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Equal(t, "hello", rec.Body.String())

	service.AssertExpectations(t)
}

func TestHandler_Download_Archive(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	records := []filedepot.FileRecord{
		{ID: uuid.New(), Name: "a.txt", Path: "docs/a.txt", Size: 1},
		{ID: uuid.New(), Name: "b.txt", Path: "docs/b.txt", Size: 1},
	}

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	for _, r := range records {
		f, err := zw.Create(r.Path)
		assert.NoError(t, err)
		_, _ = f.Write([]byte("x"))
	}
	assert.NoError(t, zw.Close())

	service.On("Resolve", mock.Anything, owner, "docs/").
		Return(records, nil)
	service.On("Retrieve", mock.Anything, records, true).
		Return(&filedepot.Download{
			Body:        io.NopCloser(bytes.NewReader(zipBuf.Bytes())),
			ContentType: "application/zip",
			Filename:    "archive.zip",
			Size:        -1,
		}, nil)

	req := authed(httptest.NewRequest("GET", "/files/download?path=docs/&archive=true", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Length"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	assert.NoError(t, err)
	assert.Len(t, zr.File, 2)

	service.AssertExpectations(t)
}

func TestHandler_Download_NotFound(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	service.On("Resolve", mock.Anything, owner, "missing.txt").
		Return(nil, filedepot.ErrNotFound)

	req := authed(httptest.NewRequest("GET", "/files/download?path=missing.txt", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertNotCalled(t, "Retrieve")
}

func TestHandler_Download_MissingPath(t *testing.T) {
	service := new(MockService)
	router := newTestHandler(service, uuid.New())

	req := authed(httptest.NewRequest("GET", "/files/download", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Resolve")
}

func TestHandler_Search(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	expected := []filedepot.FileRecord{
		{ID: uuid.New(), Name: "report.pdf", Path: "docs/report.pdf", Extension: "pdf"},
	}

	service.On("Search", mock.Anything, mock.MatchedBy(func(q filedepot.SearchQuery) bool {
		return q.OwnerID == owner &&
			q.Query == "report" &&
			q.Regex &&
			q.Extension == "pdf" &&
			q.OrderBy == "name" &&
			q.Limit == 10
	})).Return(expected, nil)

	req := authed(httptest.NewRequest("GET", "/files/search?query=report&regex=true&extension=pdf&order_by=name&limit=10", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Files []filedepot.FileRecord `json:"files"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Len(t, result.Files, 1)
	assert.Equal(t, "docs/report.pdf", result.Files[0].Path)

	service.AssertExpectations(t)
}

func TestHandler_Search_InvalidInput(t *testing.T) {
	owner := uuid.New()
	service := new(MockService)
	router := newTestHandler(service, owner)

	service.On("Search", mock.Anything, mock.Anything).
		Return(nil, filedepot.ErrInvalidInput)

	req := authed(httptest.NewRequest("GET", "/files/search?order_by=nope", nil))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	service := new(MockService)
	router := newTestHandler(service, uuid.New())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
