// Package client is a Go client for the filedepot HTTP gateway. It is used
// by the filedepot-cli command and by the end-to-end test suite.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ykulikov/filedepot"
)

// DefaultTimeout is the default HTTP client timeout for metadata calls.
// Downloads stream on the request context and are not bounded by it.
const DefaultTimeout = 30 * time.Second

var (
	ErrConfigRequired = errors.New("client: config is required")
	ErrServerRequired = errors.New("client: server URL is required")
	ErrTokenRequired  = errors.New("client: bearer token is required")
)

// Config holds the connection settings for a filedepot server.
type Config struct {
	// Server is the base URL, e.g. http://localhost:5708
	Server string
	// Token is the bearer token sent with every request.
	Token string
}

// Client performs operations against a filedepot server.
type Client struct {
	config     Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a new Client with the given config and options.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Server == "" {
		return nil, ErrServerRequired
	}
	if cfg.Token == "" {
		return nil, ErrTokenRequired
	}

	c := &Client{
		config: Config{
			Server: strings.TrimSuffix(cfg.Server, "/"),
			Token:  cfg.Token,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// serverError is the JSON error body the gateway returns.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// apiError maps a non-2xx response to the matching sentinel error.
func apiError(resp *http.Response) error {
	var body serverError
	msg := ""
	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); decodeErr == nil {
		msg = body.Message
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = filedepot.ErrNotFound
	case http.StatusUnauthorized:
		sentinel = filedepot.ErrUnauthorized
	case http.StatusBadRequest:
		sentinel = filedepot.ErrInvalidInput
	case http.StatusConflict:
		sentinel = filedepot.ErrConflict
	case http.StatusBadGateway:
		sentinel = filedepot.ErrDownloadFailed
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}

	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.config.Server + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	return req, nil
}

// Upload sends a local file to the given remote path. A remote path ending
// in "/" stores the file under its local basename inside that directory.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) (filedepot.FileRecord, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return filedepot.FileRecord{}, fmt.Errorf("open local file: %w", err)
	}
	defer func() { _ = f.Close() }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer func() { _ = pw.Close() }()

		if err := mw.WriteField("path", remotePath); err != nil {
			pw.CloseWithError(err)
			return
		}

		part, err := mw.CreateFormFile("file", filepath.Base(localPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/files/upload", nil, pr)
	if err != nil {
		return filedepot.FileRecord{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return filedepot.FileRecord{}, fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return filedepot.FileRecord{}, fmt.Errorf("upload %s: %w", remotePath, apiError(resp))
	}

	var record filedepot.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return filedepot.FileRecord{}, fmt.Errorf("upload: decode response: %w", err)
	}
	return record, nil
}

// DownloadResult is an open download stream. The caller owns closing Body.
type DownloadResult struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Download fetches the file(s) addressed by the identifier: a path, a record
// UUID, or a directory prefix ending in "/". With archive set, or when the
// identifier matches multiple files, the body is a zip stream.
func (c *Client) Download(ctx context.Context, identifier string, archive bool) (*DownloadResult, error) {
	query := url.Values{"path": {identifier}}
	if archive {
		query.Set("archive", "true")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/files/download", query, nil)
	if err != nil {
		return nil, err
	}

	// Archive streams have no content length; do not bound them with the
	// metadata timeout.
	httpClient := &http.Client{Timeout: 0, Transport: c.httpClient.Transport}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, fmt.Errorf("download %s: %w", identifier, apiError(resp))
	}

	size := int64(-1)
	if lengthStr := resp.Header.Get("Content-Length"); lengthStr != "" {
		if parsed, parseErr := strconv.ParseInt(lengthStr, 10, 64); parseErr == nil {
			size = parsed
		}
	}

	filename := ""
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, parseErr := mime.ParseMediaType(disposition); parseErr == nil {
			filename = params["filename"]
		}
	}

	return &DownloadResult{
		Body:        resp.Body,
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        size,
	}, nil
}

// List fetches one page of the caller's files.
func (c *Client) List(ctx context.Context, prefix, cursor string, limit int) (filedepot.ListResult, error) {
	query := url.Values{}
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/files/list", query, nil)
	if err != nil {
		return filedepot.ListResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return filedepot.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return filedepot.ListResult{}, fmt.Errorf("list: %w", apiError(resp))
	}

	var result filedepot.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return filedepot.ListResult{}, fmt.Errorf("list: decode response: %w", err)
	}
	return result, nil
}

// SearchOptions mirror the gateway's search parameters.
type SearchOptions struct {
	Query      string
	Regex      bool
	PathPrefix string
	Extension  string
	OrderBy    string
	Limit      int
}

// Search runs a metadata search.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]filedepot.FileRecord, error) {
	query := url.Values{}
	if opts.Query != "" {
		query.Set("query", opts.Query)
	}
	if opts.Regex {
		query.Set("regex", "true")
	}
	if opts.PathPrefix != "" {
		query.Set("path_prefix", opts.PathPrefix)
	}
	if opts.Extension != "" {
		query.Set("extension", opts.Extension)
	}
	if opts.OrderBy != "" {
		query.Set("order_by", opts.OrderBy)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/files/search", query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: %w", apiError(resp))
	}

	var result struct {
		Files []filedepot.FileRecord `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return result.Files, nil
}
