// Package database opens the SQLite file behind the event journal.
//
// It manages:
//   - The connection, with WAL mode and a busy timeout
//   - Schema migrations embedded in the binary
//
// The journal is diagnostic history. Nothing in pico-link reads it back to
// restore endpoint state, so losing the file loses only history.
//
// Usage:
//
//	db, err := database.Open(cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql and are
// applied once each, oldest first, every one in its own transaction.
package database
