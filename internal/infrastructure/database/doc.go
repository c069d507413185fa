// Package database provides the SQLite connection behind the cycle journal.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Applying embedded schema migrations at startup
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/journal.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive only: new columns must be NULLABLE or carry a
// DEFAULT, so an older binary can still open a newer file after a rollback.
package database
