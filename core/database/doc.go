// Package database handles registry database connections and schema inspection.
//
// It wraps GORM so the connector and sync-job registries can live in MySQL,
// PostgreSQL or SQLite (the latter mostly for tests and single-node setups).
//
// # Connect
//
// Connect picks the dialector from Config.Driver, applies pool settings and
// pings the database before returning.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for the integrity checks, which
// compare them with the registry models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "sync_jobs")
package database
