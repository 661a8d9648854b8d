package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ykulikov/filedepot"
	depothttp "github.com/ykulikov/filedepot/http"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"not found", filedepot.ErrNotFound, http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("resolve x: %w", filedepot.ErrNotFound), http.StatusNotFound, "not_found"},
		{"invalid identifier", filedepot.ErrInvalidIdentifier, http.StatusBadRequest, "invalid_identifier"},
		{"invalid input", filedepot.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"unauthorized", filedepot.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"conflict", filedepot.ErrConflict, http.StatusConflict, "conflict"},
		{"upload failed", filedepot.ErrUploadFailed, http.StatusBadGateway, "storage_error"},
		{"download failed", filedepot.ErrDownloadFailed, http.StatusBadGateway, "storage_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			depothttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp depothttp.ErrorResponse
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestHandleError_NoInternalDetailLeak(t *testing.T) {
	rec := httptest.NewRecorder()

	depothttp.HandleError(rec, fmt.Errorf("put docs/a.txt: %w: AccessDenied for key AKIA123", filedepot.ErrUploadFailed))

	var resp depothttp.ErrorResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Upstream storage error", resp.Message)
	assert.NotContains(t, resp.Message, "AKIA123")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := depothttp.WriteJSON(rec, http.StatusOK, map[string]string{"status": "ok"})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
