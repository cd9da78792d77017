// Package config provides configuration management for the connector service.
//
// Values come from the process environment, optionally seeded by a .env file,
// with defaults declared on the struct fields through `default` tags.
//
// # Configuration Structure
//
//   - Server: HTTP admin port and API key
//   - Service: sweep interval, stuck-job threshold, native service types, connector id
//   - Features: deployment capabilities (document-level security)
//   - Database: registry database driver and credentials
//   - Storage: S3/MinIO settings for content indices
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Service.JobCleanupInterval)
package config
