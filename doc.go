// Package filedepot implements a multi-tenant file storage gateway:
// clients upload and retrieve named, hierarchically-pathed objects backed
// by an external object store, with metadata held separately for listing
// and search.
//
// The root package contains the domain types and the Service, which maps
// virtual hierarchical paths to physical objects, resolves ambiguous
// identifiers (UUID, exact path, or directory prefix) to one-or-many
// records, reconciles metadata with object-store writes under conflicting
// uploads, streams content back either as a single object or as an
// on-the-fly zip archive, and runs flexible metadata search.
//
// Subpackages:
//   - database: metadata repository backends (postgres, sqlite)
//   - s3, filesystem: object store adapters
//   - http: the chi-based HTTP surface
//   - config: viper-based configuration loading
//
// The metadata store and the object store share no transaction. Uploads
// write the blob first and reconcile metadata second; a metadata failure
// after a successful blob write leaves an orphaned blob, surfaced as a
// hard ingestion failure rather than hidden.
package filedepot
