package store

import (
	"database/sql"
	"fmt"
	"strings"

	"uiscout/internal/classify"
	"uiscout/internal/logging"
)

// ElementRecord is one fingerprinted UI element.
type ElementRecord struct {
	Hash          string
	AppID         string
	ScreenHash    string
	HierarchyPath string
	ClassName     string
	ResourceID    string
	Text          string
	Description   string
	Bounds        string
	Clickable     bool
	LongClickable bool
	Enabled       bool
	Scrollable    bool
	Editable      bool
	Password      bool
	Safety        classify.Safety
	Stability     float64
	FullyLearned  bool
	FirstSeen     sql.NullTime
	LastSeen      sql.NullTime
}

// Summary renders the element as one short line for notifications and CLI
// listings, preferring whatever a user would recognize it by.
func (r ElementRecord) Summary() string {
	label := r.Text
	if label == "" {
		label = r.Description
	}
	name := shortClass(r.ClassName)
	switch {
	case label != "" && r.ResourceID != "":
		return fmt.Sprintf("%s %q (%s)", name, label, r.ResourceID)
	case label != "":
		return fmt.Sprintf("%s %q", name, label)
	case r.ResourceID != "":
		return fmt.Sprintf("%s (%s)", name, r.ResourceID)
	default:
		return fmt.Sprintf("%s at %s", name, r.Bounds)
	}
}

// shortClass strips the package prefix from a widget class name.
func shortClass(class string) string {
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[i+1:]
	}
	return class
}

const elementColumns = `hash, app_id, screen_hash, hierarchy_path, class_name,
	resource_id, text, description, bounds,
	clickable, long_clickable, enabled, scrollable, editable, password,
	safety, stability, fully_learned, first_seen, last_seen`

// UpsertElement registers an element or refreshes a known one. The hash is
// the identity: a re-encounter updates volatile fields and last_seen. If the
// stored row's identity attributes differ from the incoming record, the
// stored row is preserved and ErrHashCollision is returned.
func (s *Store) UpsertElement(rec ElementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAppLocked(s.db, rec.AppID); err != nil {
		return err
	}
	return upsertElement(s.db, rec)
}

// upsertElement runs the collision check and upsert on db or an open tx.
func upsertElement(ex queryExecer, rec ElementRecord) error {
	var (
		appID, path, class, resID, text, desc string
	)
	err := ex.QueryRow(`
		SELECT app_id, hierarchy_path, class_name, resource_id, text, description
		FROM elements WHERE hash = ?
	`, rec.Hash).Scan(&appID, &path, &class, &resID, &text, &desc)
	switch {
	case err == sql.ErrNoRows:
		// New element.
	case err != nil:
		return fmt.Errorf("failed to check element %s: %w", rec.Hash, err)
	case path == "" && class == "":
		// Stub row created to satisfy a command's foreign key; the real
		// record fills it in below.
	default:
		if appID != rec.AppID || path != rec.HierarchyPath || class != rec.ClassName ||
			resID != rec.ResourceID || text != rec.Text || desc != rec.Description {
			logging.StoreError("Hash collision on %s: stored %s %s/%s, incoming %s %s/%s",
				rec.Hash, appID, class, path, rec.AppID, rec.ClassName, rec.HierarchyPath)
			return fmt.Errorf("element %s: %w", rec.Hash, ErrHashCollision)
		}
	}

	// fully_learned never downgrades: an incremental pass over a screen the
	// comprehensive explorer already finished must not clear the stamp.
	_, err = ex.Exec(`
		INSERT INTO elements (`+elementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(hash) DO UPDATE SET
			screen_hash = excluded.screen_hash,
			hierarchy_path = excluded.hierarchy_path,
			class_name = excluded.class_name,
			resource_id = excluded.resource_id,
			text = excluded.text,
			description = excluded.description,
			bounds = excluded.bounds,
			clickable = excluded.clickable,
			long_clickable = excluded.long_clickable,
			enabled = excluded.enabled,
			scrollable = excluded.scrollable,
			editable = excluded.editable,
			password = excluded.password,
			safety = excluded.safety,
			stability = excluded.stability,
			fully_learned = CASE WHEN excluded.fully_learned = 1 THEN 1 ELSE elements.fully_learned END,
			last_seen = CURRENT_TIMESTAMP
	`,
		rec.Hash, rec.AppID, rec.ScreenHash, rec.HierarchyPath, rec.ClassName,
		rec.ResourceID, rec.Text, rec.Description, rec.Bounds,
		rec.Clickable, rec.LongClickable, rec.Enabled, rec.Scrollable, rec.Editable, rec.Password,
		string(rec.Safety), rec.Stability, rec.FullyLearned,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert element %s: %w", rec.Hash, err)
	}
	return nil
}

// queryExecer is satisfied by both *sql.DB and *sql.Tx.
type queryExecer interface {
	execer
	QueryRow(query string, args ...interface{}) *sql.Row
}

// GetElement returns one element by hash.
func (s *Store) GetElement(hash string) (ElementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+elementColumns+` FROM elements WHERE hash = ?`, hash)
	rec, err := scanElement(row)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get element: %w", err)
	}
	return rec, nil
}

// ElementsForApp returns every element learned for an app.
func (s *Store) ElementsForApp(appID string) ([]ElementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryElementsLocked(`SELECT `+elementColumns+` FROM elements WHERE app_id = ? ORDER BY hierarchy_path`, appID)
}

// ElementsOnScreen returns the elements last seen on a screen.
func (s *Store) ElementsOnScreen(screenHash string) ([]ElementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryElementsLocked(`SELECT `+elementColumns+` FROM elements WHERE screen_hash = ? ORDER BY hierarchy_path`, screenHash)
}

// queryElementsLocked runs an element query. Callers must hold s.mu.
func (s *Store) queryElementsLocked(query string, args ...interface{}) ([]ElementRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var out []ElementRecord
	for rows.Next() {
		rec, err := scanElement(rows)
		if err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping malformed element row: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanElement(row rowScanner) (ElementRecord, error) {
	var rec ElementRecord
	var safety string
	err := row.Scan(
		&rec.Hash, &rec.AppID, &rec.ScreenHash, &rec.HierarchyPath, &rec.ClassName,
		&rec.ResourceID, &rec.Text, &rec.Description, &rec.Bounds,
		&rec.Clickable, &rec.LongClickable, &rec.Enabled, &rec.Scrollable, &rec.Editable, &rec.Password,
		&safety, &rec.Stability, &rec.FullyLearned, &rec.FirstSeen, &rec.LastSeen,
	)
	rec.Safety = classify.Safety(safety)
	return rec, err
}

// MarkScreenFullyLearned stamps a screen and its elements as exhaustively
// explored. Incremental sessions skip fully-learned screens.
func (s *Store) MarkScreenFullyLearned(appID, screenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"UPDATE screen_states SET fully_learned = 1 WHERE hash = ? AND app_id = ?",
		screenHash, appID,
	); err != nil {
		return fmt.Errorf("failed to mark screen learned: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE elements SET fully_learned = 1 WHERE screen_hash = ? AND app_id = ?",
		screenHash, appID,
	); err != nil {
		return fmt.Errorf("failed to mark elements learned: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	logging.StoreDebug("Marked screen %s fully learned for %s", screenHash, appID)
	return nil
}
