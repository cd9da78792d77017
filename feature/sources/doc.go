// Package sources exposes the registered document sources.
//
// # HTTP Endpoints
//
//   - GET /sources : Lists connectors, their service types and whether a source is registered for them.
//   - GET /sources/:id/ping : Connects to the backend of a connector once.
//   - POST /sources/:id/filtering/validate : Validates advanced rules (request body) against the backend.
package sources
