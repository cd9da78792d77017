// Package logger builds the zap logger shared by the server, the sweep loop
// and the CLI.
//
// Level "debug" selects zap's development config; any other level uses the
// production config at that level. Format "console" switches to colored
// console output, otherwise entries are JSON with time, level and message keys.
//
// Request handlers derive a per-request logger with WithRayID so every line
// carries the ray_id set by the rayid middleware. Background boundaries that
// lose a whole sweep report through Critical.
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
