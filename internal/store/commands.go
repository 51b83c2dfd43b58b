package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"uiscout/internal/logging"
)

// CommandAction is the gesture a command triggers.
type CommandAction string

const (
	ActionClick     CommandAction = "click"
	ActionLongClick CommandAction = "long_click"
	ActionSetText   CommandAction = "set_text"
	ActionScroll    CommandAction = "scroll"
)

// CommandRecord is one voice phrase bound to an element.
type CommandRecord struct {
	ElementHash string
	AppID       string
	Phrase      string
	Action      CommandAction
	Confidence  float64
	Synonyms    []string
	IsFallback  bool
	UsageCount  int
	LastUsed    sql.NullTime
	CreatedAt   sql.NullTime
}

// UpsertCommand registers a phrase for an element. Re-registration refreshes
// confidence and synonyms but keeps the accumulated usage counter.
func (s *Store) UpsertCommand(rec CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAppLocked(s.db, rec.AppID); err != nil {
		return err
	}
	if err := s.ensureElementLocked(s.db, rec.ElementHash, rec.AppID); err != nil {
		return err
	}
	return upsertCommand(s.db, rec)
}

func upsertCommand(ex execer, rec CommandRecord) error {
	synonyms, err := json.Marshal(rec.Synonyms)
	if err != nil {
		return fmt.Errorf("failed to marshal synonyms: %w", err)
	}
	_, err = ex.Exec(`
		INSERT INTO commands (element_hash, app_id, phrase, action, confidence, synonyms, is_fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(element_hash, phrase) DO UPDATE SET
			action = excluded.action,
			confidence = excluded.confidence,
			synonyms = excluded.synonyms,
			is_fallback = excluded.is_fallback
	`, rec.ElementHash, rec.AppID, rec.Phrase, string(rec.Action),
		rec.Confidence, string(synonyms), rec.IsFallback)
	if err != nil {
		return fmt.Errorf("failed to upsert command %q: %w", rec.Phrase, err)
	}
	return nil
}

// ensureElementLocked creates a stub element row so a command's foreign key
// holds even when the element write is still buffered in a batch. The real
// upsert fills the stub in when it lands. Callers must hold s.mu.
func (s *Store) ensureElementLocked(ex execer, hash, appID string) error {
	if hash == "" {
		return fmt.Errorf("element hash is empty")
	}
	if _, err := ex.Exec(
		"INSERT OR IGNORE INTO elements (hash, app_id) VALUES (?, ?)", hash, appID,
	); err != nil {
		return fmt.Errorf("failed to ensure element %s: %w", hash, err)
	}
	return nil
}

const commandColumns = `element_hash, app_id, phrase, action, confidence,
	synonyms, is_fallback, usage_count, last_used, created_at`

// CommandsForApp returns every command registered for an app.
func (s *Store) CommandsForApp(appID string) ([]CommandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryCommandsLocked(
		`SELECT `+commandColumns+` FROM commands WHERE app_id = ? ORDER BY phrase`, appID)
}

// CommandsForScreen returns the commands whose elements were last seen on
// the given screen.
func (s *Store) CommandsForScreen(appID, screenHash string) ([]CommandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryCommandsLocked(`
		SELECT `+commandColumns+` FROM commands
		WHERE app_id = ? AND element_hash IN
			(SELECT hash FROM elements WHERE screen_hash = ?)
		ORDER BY phrase
	`, appID, screenHash)
}

// CommandsForElement returns the phrases bound to one element.
func (s *Store) CommandsForElement(elementHash string) ([]CommandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryCommandsLocked(
		`SELECT `+commandColumns+` FROM commands WHERE element_hash = ? ORDER BY phrase`, elementHash)
}

// queryCommandsLocked runs a command query. Callers must hold s.mu.
func (s *Store) queryCommandsLocked(query string, args ...interface{}) ([]CommandRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var (
			rec      CommandRecord
			action   string
			synonyms string
		)
		if err := rows.Scan(
			&rec.ElementHash, &rec.AppID, &rec.Phrase, &action, &rec.Confidence,
			&synonyms, &rec.IsFallback, &rec.UsageCount, &rec.LastUsed, &rec.CreatedAt,
		); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping malformed command row: %v", err)
			continue
		}
		rec.Action = CommandAction(action)
		if err := json.Unmarshal([]byte(synonyms), &rec.Synonyms); err != nil {
			logging.Get(logging.CategoryStore).Warn("Synonyms unmarshal failed for %q: %v", rec.Phrase, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// IncrementCommandUsage bumps a command's usage counter after a successful
// match. Callers treat this as fire-and-forget; failures only log.
func (s *Store) IncrementCommandUsage(elementHash, phrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE commands SET usage_count = usage_count + 1, last_used = CURRENT_TIMESTAMP
		WHERE element_hash = ? AND phrase = ?
	`, elementHash, phrase)
	if err != nil {
		logging.StoreError("Failed to increment usage for %q: %v", phrase, err)
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// NextFallbackOrdinal reserves the next number for a fallback phrase like
// "button 3". Counters are scoped per app and element class and only ever
// increase, so numbers are never reused even after deletions.
func (s *Store) NextFallbackOrdinal(appID, className string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAppLocked(s.db, appID); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO fallback_counters (app_id, class_name, next_ordinal)
		VALUES (?, ?, 1)
		ON CONFLICT(app_id, class_name) DO NOTHING
	`, appID, className); err != nil {
		return 0, fmt.Errorf("failed to seed fallback counter: %w", err)
	}

	var ordinal int
	if err := tx.QueryRow(
		"SELECT next_ordinal FROM fallback_counters WHERE app_id = ? AND class_name = ?",
		appID, className,
	).Scan(&ordinal); err != nil {
		return 0, fmt.Errorf("failed to read fallback counter: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE fallback_counters SET next_ordinal = next_ordinal + 1 WHERE app_id = ? AND class_name = ?",
		appID, className,
	); err != nil {
		return 0, fmt.Errorf("failed to advance fallback counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit fallback counter: %w", err)
	}
	return ordinal, nil
}
