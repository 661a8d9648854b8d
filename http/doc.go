// Package http exposes the file gateway over HTTP.
//
// The /files subtree is bearer-token protected: upload (multipart path +
// file), download (path, id, or directory prefix, optionally zipped),
// search, and cursor-paginated listing. /healthz and /metrics are served
// unauthenticated for probes and scrapers.
package http
