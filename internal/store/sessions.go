package store

import (
	"database/sql"
	"fmt"
)

// Session lifecycle statuses persisted for audit and the status CLI.
const (
	SessionRunning     = "running"
	SessionPausedLogin = "paused_login"
	SessionPausedUser  = "paused_user"
	SessionCompleted   = "completed"
	SessionStopped     = "stopped"
	SessionFailed      = "failed"
)

// SessionRecord is one exploration run.
type SessionRecord struct {
	ID                 string
	AppID              string
	Mode               string
	Status             string
	ScreensVisited     int
	ElementsRegistered int
	Error              string
	StartedAt          sql.NullTime
	EndedAt            sql.NullTime
}

// CreateSession records the start of an exploration run.
func (s *Store) CreateSession(rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Status == "" {
		rec.Status = SessionRunning
	}
	_, err := s.db.Exec(`
		INSERT INTO exploration_sessions (id, app_id, mode, status, started_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, rec.ID, rec.AppID, rec.Mode, rec.Status)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// UpdateSessionProgress refreshes the running counters mid-exploration.
func (s *Store) UpdateSessionProgress(id string, status string, screens, elements int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE exploration_sessions
		SET status = ?, screens_visited = ?, elements_registered = ?
		WHERE id = ?
	`, status, screens, elements, id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// FinishSession records the terminal state of a run.
func (s *Store) FinishSession(id, status, errMsg string, screens, elements int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE exploration_sessions
		SET status = ?, error = ?, screens_visited = ?, elements_registered = ?,
			ended_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, errMsg, screens, elements, id)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	return nil
}

// GetSession returns one session by id.
func (s *Store) GetSession(id string) (SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec SessionRecord
	err := s.db.QueryRow(`
		SELECT id, app_id, mode, status, screens_visited, elements_registered, error, started_at, ended_at
		FROM exploration_sessions WHERE id = ?
	`, id).Scan(
		&rec.ID, &rec.AppID, &rec.Mode, &rec.Status,
		&rec.ScreensVisited, &rec.ElementsRegistered, &rec.Error,
		&rec.StartedAt, &rec.EndedAt,
	)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get session: %w", err)
	}
	return rec, nil
}

// RecentSessions returns the latest runs across all apps, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, app_id, mode, status, screens_visited, elements_registered, error, started_at, ended_at
		FROM exploration_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(
			&rec.ID, &rec.AppID, &rec.Mode, &rec.Status,
			&rec.ScreensVisited, &rec.ElementsRegistered, &rec.Error,
			&rec.StartedAt, &rec.EndedAt,
		); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
