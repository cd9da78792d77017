// Package cleanup exposes the job reconciliation sweep over HTTP.
//
// # HTTP Endpoints
//
//   - POST /cleanup/run : Runs one sweep now (supports ?dry_run=true, ?orphans_only=true, ?stuck_only=true).
//   - GET /cleanup/last : Returns the report of the most recent sweep.
package cleanup
