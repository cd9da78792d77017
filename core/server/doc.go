// Package server holds the HTTP admin server configuration.
//
// The start command reads the listen port, the API key that protects every
// route except /swagger, and the graceful shutdown budget shared with the
// reconciliation loop.
package server
