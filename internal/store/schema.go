package store

import "fmt"

// initialize creates the schema. Every table hangs off apps(app_id) with
// ON DELETE CASCADE so deleting an app removes its entire learned subtree;
// commands cascade one level deeper, through elements(hash).
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS apps (
		app_id TEXT PRIMARY KEY,
		version TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'not_started',
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_explored DATETIME
	);

	CREATE TABLE IF NOT EXISTS elements (
		hash TEXT PRIMARY KEY,
		app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
		screen_hash TEXT NOT NULL DEFAULT '',
		hierarchy_path TEXT NOT NULL DEFAULT '',
		class_name TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		bounds TEXT NOT NULL DEFAULT '',
		clickable INTEGER NOT NULL DEFAULT 0,
		long_clickable INTEGER NOT NULL DEFAULT 0,
		enabled INTEGER NOT NULL DEFAULT 0,
		scrollable INTEGER NOT NULL DEFAULT 0,
		editable INTEGER NOT NULL DEFAULT 0,
		password INTEGER NOT NULL DEFAULT 0,
		safety TEXT NOT NULL DEFAULT 'inert',
		stability REAL NOT NULL DEFAULT 0,
		fully_learned INTEGER NOT NULL DEFAULT 0,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_elements_app ON elements(app_id);
	CREATE INDEX IF NOT EXISTS idx_elements_screen ON elements(screen_hash);
	CREATE INDEX IF NOT EXISTS idx_elements_safety ON elements(app_id, safety);

	CREATE TABLE IF NOT EXISTS screen_states (
		hash TEXT PRIMARY KEY,
		app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
		screen_name TEXT NOT NULL DEFAULT '',
		element_count INTEGER NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0,
		fully_learned INTEGER NOT NULL DEFAULT 0,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_screens_app ON screen_states(app_id, last_seen);

	CREATE TABLE IF NOT EXISTS hierarchy_edges (
		app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
		parent_hash TEXT NOT NULL,
		child_hash TEXT NOT NULL,
		child_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (parent_hash, child_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_hierarchy_app ON hierarchy_edges(app_id);
	CREATE INDEX IF NOT EXISTS idx_hierarchy_child ON hierarchy_edges(child_hash);

	CREATE TABLE IF NOT EXISTS navigation_edges (
		app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
		from_screen TEXT NOT NULL,
		element_hash TEXT NOT NULL,
		to_screen TEXT NOT NULL,
		hits INTEGER NOT NULL DEFAULT 1,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (from_screen, element_hash, to_screen)
	);
	CREATE INDEX IF NOT EXISTS idx_navigation_app ON navigation_edges(app_id);
	CREATE INDEX IF NOT EXISTS idx_navigation_to ON navigation_edges(to_screen);

	CREATE TABLE IF NOT EXISTS commands (
		element_hash TEXT NOT NULL REFERENCES elements(hash) ON DELETE CASCADE,
		app_id TEXT NOT NULL DEFAULT '',
		phrase TEXT NOT NULL,
		action TEXT NOT NULL DEFAULT 'click',
		confidence REAL NOT NULL DEFAULT 1.0,
		synonyms TEXT NOT NULL DEFAULT '[]',
		is_fallback INTEGER NOT NULL DEFAULT 0,
		usage_count INTEGER NOT NULL DEFAULT 0,
		last_used DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (element_hash, phrase)
	);
	CREATE INDEX IF NOT EXISTS idx_commands_app ON commands(app_id);

	CREATE TABLE IF NOT EXISTS fallback_counters (
		app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
		class_name TEXT NOT NULL,
		next_ordinal INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (app_id, class_name)
	);

	CREATE TABLE IF NOT EXISTS exploration_sessions (
		id TEXT PRIMARY KEY,
		app_id TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'incremental',
		status TEXT NOT NULL DEFAULT 'running',
		screens_visited INTEGER NOT NULL DEFAULT 0,
		elements_registered INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_app ON exploration_sessions(app_id, started_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
