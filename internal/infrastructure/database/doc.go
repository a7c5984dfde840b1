// Package database provides SQLite connectivity for the shade service.
//
// It stores the diagnostic log and per-channel position history. The
// translation core never touches it; the hub bridge writes through the
// diagnostics and history repositories.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Versioned schema migrations read from MigrationsFS
//   - Single-writer connection limits
//
// Usage:
//
//	db, err := database.Open(database.ConfigFrom(cfg.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. Each applies in its own transaction.
package database
