package store

import (
	"database/sql"
	"fmt"

	"uiscout/internal/logging"
)

// Migration defines a single column addition to an existing table.
// Columns listed here must also appear in the CREATE TABLE statements in
// schema.go so fresh databases and upgraded ones end up identical.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists columns added after the initial schema shipped.
var pendingMigrations = []Migration{
	// Fully-learned stamps, added when comprehensive mode landed.
	{"elements", "fully_learned", "INTEGER NOT NULL DEFAULT 0"},
	{"screen_states", "fully_learned", "INTEGER NOT NULL DEFAULT 0"},
	// Synonym expansion for generated commands.
	{"commands", "synonyms", "TEXT NOT NULL DEFAULT '[]'"},
	// Edge hit counters, used to rank routes.
	{"navigation_edges", "hits", "INTEGER NOT NULL DEFAULT 1"},
	// Human-readable app label for the CLI listings.
	{"apps", "label", "TEXT NOT NULL DEFAULT ''"},
}

// RunMigrations applies any missing column additions. Failures are logged
// and skipped rather than aborting startup: a half-migrated database still
// serves reads, and the next start retries.
func RunMigrations(db *sql.DB) error {
	for _, m := range pendingMigrations {
		exists, err := tableExists(db, m.Table)
		if err != nil {
			logging.StoreError("Migration check failed for table %s: %v", m.Table, err)
			continue
		}
		if !exists {
			// Fresh database; schema.go creates the table with the
			// column already in place.
			continue
		}

		hasCol, err := columnExists(db, m.Table, m.Column)
		if err != nil {
			logging.StoreError("Migration check failed for %s.%s: %v", m.Table, m.Column, err)
			continue
		}
		if hasCol {
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			logging.StoreError("Migration failed for %s.%s: %v", m.Table, m.Column, err)
			continue
		}
		logging.Store("Applied migration: %s.%s", m.Table, m.Column)
	}
	return nil
}

// tableExists checks whether a table is present in the database.
func tableExists(db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// columnExists checks whether a column is present on a table.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
