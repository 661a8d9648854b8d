// Package config provides configuration loading and validation for filedepot.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILEDEPOT_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FILEDEPOT_ prefix:
//   - server.port → FILEDEPOT_SERVER_PORT
//   - database.type → FILEDEPOT_DATABASE_TYPE
//   - auth.secret → FILEDEPOT_AUTH_SECRET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and max_upload_size
//   - Service: default and maximum search page sizes
//   - Database: type, DSN, and table names
//   - Storage: backend type (filesystem/s3) and its settings
//   - Auth: token secret and lifetime
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Storage type must be filesystem or s3
//   - Auth secret must be set
//   - Log level must be debug, info, warn, or error
package config
