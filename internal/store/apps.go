package store

import (
	"database/sql"
	"fmt"

	"uiscout/internal/logging"
)

// AppStatus tracks how much of an app has been explored.
type AppStatus string

const (
	StatusNotStarted AppStatus = "not_started"
	StatusPartial    AppStatus = "partial"
	StatusComplete   AppStatus = "complete"
)

// AppRecord is one known application.
type AppRecord struct {
	AppID        string
	Version      string
	Label        string
	Status       AppStatus
	ElementCount int
	ScreenCount  int
	FirstSeen    sql.NullTime
	LastExplored sql.NullTime
}

// UpsertApp registers an app or refreshes its version and label. Exploration
// status is never touched here; use SetAppStatus so a plain re-registration
// cannot demote a completed app.
func (s *Store) UpsertApp(rec AppRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO apps (app_id, version, label, first_seen)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(app_id) DO UPDATE SET
			version = excluded.version,
			label = excluded.label
	`, rec.AppID, rec.Version, rec.Label)
	if err != nil {
		logging.StoreError("Failed to upsert app %s: %v", rec.AppID, err)
		return fmt.Errorf("failed to upsert app: %w", err)
	}
	logging.StoreDebug("Upserted app %s (version=%s)", rec.AppID, rec.Version)
	return nil
}

// ensureAppLocked creates a minimal app row if none exists, so child records
// never fail their foreign key when exploration races registration. Callers
// must hold s.mu.
func (s *Store) ensureAppLocked(ex execer, appID string) error {
	if appID == "" {
		return fmt.Errorf("app id is empty")
	}
	if _, err := ex.Exec("INSERT OR IGNORE INTO apps (app_id) VALUES (?)", appID); err != nil {
		return fmt.Errorf("failed to ensure app %s: %w", appID, err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// GetApp returns one app with its element and screen counts.
func (s *Store) GetApp(appID string) (AppRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec AppRecord
	err := s.db.QueryRow(`
		SELECT a.app_id, a.version, a.label, a.status, a.first_seen, a.last_explored,
			(SELECT COUNT(*) FROM elements e WHERE e.app_id = a.app_id),
			(SELECT COUNT(*) FROM screen_states sc WHERE sc.app_id = a.app_id)
		FROM apps a WHERE a.app_id = ?
	`, appID).Scan(
		&rec.AppID, &rec.Version, &rec.Label, &rec.Status,
		&rec.FirstSeen, &rec.LastExplored,
		&rec.ElementCount, &rec.ScreenCount,
	)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get app: %w", err)
	}
	return rec, nil
}

// ListApps returns all known apps with counts, most recently explored first.
func (s *Store) ListApps() ([]AppRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT a.app_id, a.version, a.label, a.status, a.first_seen, a.last_explored,
			(SELECT COUNT(*) FROM elements e WHERE e.app_id = a.app_id),
			(SELECT COUNT(*) FROM screen_states sc WHERE sc.app_id = a.app_id)
		FROM apps a
		ORDER BY a.last_explored DESC, a.app_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []AppRecord
	for rows.Next() {
		var rec AppRecord
		if err := rows.Scan(
			&rec.AppID, &rec.Version, &rec.Label, &rec.Status,
			&rec.FirstSeen, &rec.LastExplored,
			&rec.ElementCount, &rec.ScreenCount,
		); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping malformed app row: %v", err)
			continue
		}
		apps = append(apps, rec)
	}
	return apps, rows.Err()
}

// SetAppStatus updates exploration status and stamps last_explored.
func (s *Store) SetAppStatus(appID string, status AppStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE apps SET status = ?, last_explored = CURRENT_TIMESTAMP
		WHERE app_id = ?
	`, status, appID)
	if err != nil {
		return fmt.Errorf("failed to set app status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logging.Store("App %s status -> %s", appID, status)
	return nil
}

// DeleteApp removes an app and everything learned about it. Foreign keys
// cascade through elements, screens, edges, counters, and commands.
func (s *Store) DeleteApp(appID string) error {
	timer := logging.StartTimer(logging.CategoryStore, "DeleteApp")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM apps WHERE app_id = ?", appID)
	if err != nil {
		logging.StoreError("Failed to delete app %s: %v", appID, err)
		return fmt.Errorf("failed to delete app: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logging.Store("Deleted app %s and all learned data", appID)
	return nil
}

// ResetApp clears everything learned about an app but keeps its registration,
// so the next exploration starts from scratch.
func (s *Store) ResetApp(appID string) error {
	timer := logging.StartTimer(logging.CategoryStore, "ResetApp")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Commands cascade when their elements go.
	for _, stmt := range []string{
		"DELETE FROM elements WHERE app_id = ?",
		"DELETE FROM screen_states WHERE app_id = ?",
		"DELETE FROM hierarchy_edges WHERE app_id = ?",
		"DELETE FROM navigation_edges WHERE app_id = ?",
		"DELETE FROM fallback_counters WHERE app_id = ?",
		"UPDATE apps SET status = 'not_started', last_explored = NULL WHERE app_id = ?",
	} {
		if _, err := tx.Exec(stmt, appID); err != nil {
			return fmt.Errorf("failed to reset app: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	logging.Store("Reset learned data for app %s", appID)
	return nil
}
