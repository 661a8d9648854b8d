package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ykulikov/filedepot"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response based on error type.
// Store-level failures collapse into a generic upstream storage response;
// internal details and credentials never reach the caller.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	switch {
	case errors.Is(err, filedepot.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, filedepot.ErrInvalidIdentifier):
		WriteError(w, http.StatusBadRequest, "invalid_identifier", "Invalid path or id")
	case errors.Is(err, filedepot.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, filedepot.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, filedepot.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "Conflicting resource")
	case errors.Is(err, filedepot.ErrUploadFailed):
		WriteError(w, http.StatusBadGateway, "storage_error", "Upstream storage error")
	case errors.Is(err, filedepot.ErrDownloadFailed):
		WriteError(w, http.StatusBadGateway, "storage_error", "Upstream storage error")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
