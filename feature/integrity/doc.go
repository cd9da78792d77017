// Package integrity provides infrastructure health checks.
//
// # Checks Provided
//
//   - Storage: Checks that the content index bucket exists and counts its index prefixes.
//   - Database: Validates that the connector and sync job tables match the GORM models (columns, types).
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/storage : Runs storage check (supports ?fix=true).
//   - GET /integrity/database : Runs database schema check.
package integrity
