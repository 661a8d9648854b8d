package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ykulikov/filedepot"
)

// Service is the storage engine surface the handlers consume.
type Service interface {
	Ingest(ctx context.Context, ownerID uuid.UUID, targetPath, contentType, filename string, content io.ReadSeeker) (filedepot.FileRecord, error)
	Resolve(ctx context.Context, ownerID uuid.UUID, identifier string) ([]filedepot.FileRecord, error)
	Retrieve(ctx context.Context, records []filedepot.FileRecord, archive bool) (*filedepot.Download, error)
	Search(ctx context.Context, q filedepot.SearchQuery) ([]filedepot.FileRecord, error)
	List(ctx context.Context, ownerID uuid.UUID, q filedepot.ListQuery) (filedepot.ListResult, error)
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	Verifier Verifier
	CORS     CORSConfig
	// MaxUploadBytes bounds the in-memory part of multipart parsing;
	// larger payloads spill to temp files. Zero means 32 MiB.
	MaxUploadBytes int64
}

// Handler provides the HTTP surface for file storage operations.
type Handler struct {
	config  HandlerConfig
	service Service
}

func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns the configured http.Handler. The /files subtree requires a
// bearer token; /healthz and /metrics are open.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/files", func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Verifier))

		r.With(MetricsMiddleware("list")).Get("/list", h.handleList)
		r.With(MetricsMiddleware("upload")).Post("/upload", h.handleUpload)
		r.With(MetricsMiddleware("download")).Get("/download", h.handleDownload)
		r.With(MetricsMiddleware("search")).Get("/search", h.handleSearch)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, parseErr := strconv.Atoi(limitStr); parseErr == nil {
			limit = parsed
		}
	}

	query := filedepot.ListQuery{
		PathPrefix: r.URL.Query().Get("prefix"),
		Limit:      limit,
		Cursor:     r.URL.Query().Get("cursor"),
	}

	result, err := h.service.List(r.Context(), ownerID, query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	maxMemory := h.config.MaxUploadBytes
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Expected multipart form with path and file")
		return
	}
	defer func() {
		if rmErr := r.MultipartForm.RemoveAll(); rmErr != nil {
			slog.Warn("failed to clean multipart temp files", "error", rmErr)
		}
	}()

	targetPath := r.FormValue("path")
	if targetPath == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing path field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	record, err := h.service.Ingest(r.Context(), ownerID, targetPath, header.Header.Get("Content-Type"), header.Filename, file)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	identifier := r.URL.Query().Get("path")
	if identifier == "" {
		WriteError(w, http.StatusBadRequest, "invalid_identifier", "Missing path parameter")
		return
	}

	archive := false
	if archiveStr := r.URL.Query().Get("archive"); archiveStr != "" {
		archive, _ = strconv.ParseBool(archiveStr)
	}

	records, err := h.service.Resolve(r.Context(), ownerID, identifier)
	if err != nil {
		HandleError(w, err)
		return
	}

	download, err := h.service.Retrieve(r.Context(), records, archive)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = download.Body.Close() }()

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	if download.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(download.Size, 10))
	}

	// Headers are already out; a mid-stream failure can only truncate the
	// body, which the client sees as a broken transfer.
	written, err := io.Copy(w, download.Body)
	downloadBytes.Add(float64(written))
	if err != nil {
		slog.Error("download stream interrupted", "identifier", identifier, "written", written, "error", err)
	}
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromContext(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	params := r.URL.Query()

	regex := false
	if regexStr := params.Get("regex"); regexStr != "" {
		regex, _ = strconv.ParseBool(regexStr)
	}

	limit := 0
	if limitStr := params.Get("limit"); limitStr != "" {
		if parsed, parseErr := strconv.Atoi(limitStr); parseErr == nil {
			limit = parsed
		}
	}

	query := filedepot.SearchQuery{
		OwnerID:    ownerID,
		PathPrefix: params.Get("path_prefix"),
		Extension:  params.Get("extension"),
		Query:      params.Get("query"),
		Regex:      regex,
		OrderBy:    params.Get("order_by"),
		Limit:      limit,
	}

	records, err := h.service.Search(r.Context(), query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"files": records})
}
