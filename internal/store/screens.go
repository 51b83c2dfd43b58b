package store

import (
	"database/sql"
	"fmt"

	"uiscout/internal/logging"
)

// ScreenRecord is one deduplicated screen state.
type ScreenRecord struct {
	Hash         string
	AppID        string
	ScreenName   string
	ElementCount int
	Depth        int
	FullyLearned bool
	FirstSeen    sql.NullTime
	LastSeen     sql.NullTime
}

// UpsertScreen registers a screen or refreshes a known one. Re-encounters
// update last_seen, the element count, and the depth at which the screen was
// reached this time.
func (s *Store) UpsertScreen(rec ScreenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAppLocked(s.db, rec.AppID); err != nil {
		return err
	}
	return upsertScreen(s.db, rec)
}

func upsertScreen(ex execer, rec ScreenRecord) error {
	_, err := ex.Exec(`
		INSERT INTO screen_states (hash, app_id, screen_name, element_count, depth, fully_learned, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(hash) DO UPDATE SET
			screen_name = excluded.screen_name,
			element_count = excluded.element_count,
			depth = excluded.depth,
			fully_learned = CASE WHEN excluded.fully_learned = 1 THEN 1 ELSE screen_states.fully_learned END,
			last_seen = CURRENT_TIMESTAMP
	`, rec.Hash, rec.AppID, rec.ScreenName, rec.ElementCount, rec.Depth, rec.FullyLearned)
	if err != nil {
		return fmt.Errorf("failed to upsert screen %s: %w", rec.Hash, err)
	}
	return nil
}

// GetScreen returns one screen by hash.
func (s *Store) GetScreen(hash string) (ScreenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec ScreenRecord
	err := s.db.QueryRow(`
		SELECT hash, app_id, screen_name, element_count, depth, fully_learned, first_seen, last_seen
		FROM screen_states WHERE hash = ?
	`, hash).Scan(
		&rec.Hash, &rec.AppID, &rec.ScreenName, &rec.ElementCount,
		&rec.Depth, &rec.FullyLearned, &rec.FirstSeen, &rec.LastSeen,
	)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get screen: %w", err)
	}
	return rec, nil
}

// ScreensForApp returns all screens learned for an app, most recent first.
func (s *Store) ScreensForApp(appID string) ([]ScreenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT hash, app_id, screen_name, element_count, depth, fully_learned, first_seen, last_seen
		FROM screen_states WHERE app_id = ?
		ORDER BY last_seen DESC, rowid DESC
	`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query screens: %w", err)
	}
	defer rows.Close()

	var out []ScreenRecord
	for rows.Next() {
		var rec ScreenRecord
		if err := rows.Scan(
			&rec.Hash, &rec.AppID, &rec.ScreenName, &rec.ElementCount,
			&rec.Depth, &rec.FullyLearned, &rec.FirstSeen, &rec.LastSeen,
		); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping malformed screen row: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentScreenHashes returns up to n screen hashes for an app, most recently
// seen first. The dedup window is seeded from this on startup so similarity
// checks survive restarts.
func (s *Store) RecentScreenHashes(appID string, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// rowid breaks last_seen ties; CURRENT_TIMESTAMP has second granularity
	// and a burst of screens can land within one second.
	rows, err := s.db.Query(`
		SELECT hash FROM screen_states
		WHERE app_id = ?
		ORDER BY last_seen DESC, rowid DESC
		LIMIT ?
	`, appID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent screens: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			continue
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// LearnedScreenHashes returns the hashes of screens the comprehensive
// explorer has finished. Incremental sessions skip these.
func (s *Store) LearnedScreenHashes(appID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT hash FROM screen_states WHERE app_id = ? AND fully_learned = 1", appID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query learned screens: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			continue
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}
