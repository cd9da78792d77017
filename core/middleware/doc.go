// Package middleware groups the fiber middleware of the HTTP API.
//
//   - auth: API key check (X-API-Key header or api_key query parameter).
//   - rayid: request id stored in the "ray_id" local and echoed in X-Ray-ID.
package middleware
