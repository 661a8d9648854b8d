// Package database selects and wires a metadata repository backend.
//
// Two backends are supported:
//   - sqlite: embedded, zero-dependency deployments (modernc.org/sqlite)
//   - postgres: shared deployments (jackc/pgx connection pool)
//
// Connect runs migrations, validates the resulting schema against the
// expected column layout, and returns a ready filedepot.FileRepo together
// with a cleanup function. Both backends enforce the per-owner path
// uniqueness the upsert-on-conflict reconciliation relies on.
package database
