// Package store implements the uiscout knowledge base on SQLite. Elements,
// screens, edges, and commands are keyed by content hash and written through
// upserts, so re-encounters update records instead of duplicating them.
//
// Write modes:
//   - immediate: one upsert per record, used by the incremental learner
//   - batched: records buffered in a Batch and flushed as one transaction,
//     used by comprehensive exploration (see batch.go)
//
// Concurrent explorations of the same app serialize through per-app locks
// (LockApp/TryLockApp) so interleaved writes cannot corrupt the navigation
// graph.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"uiscout/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrHashCollision is returned when an upsert would overwrite a record
	// whose identity fields differ from the incoming one - two distinct
	// elements resolved to the same hash.
	ErrHashCollision = errors.New("element hash collision")

	// ErrAppBusy is returned when an exclusive per-app lock is requested
	// while another exploration of the same app holds it.
	ErrAppBusy = errors.New("app is being explored by another session")
)

// Store is the SQLite-backed knowledge base.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string

	appMu    sync.Mutex
	appLocks map[string]*sync.Mutex
}

// New initializes the SQLite database at the given path.
func New(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.New")
	defer timer.Stop()

	logging.Store("Initializing store at path: %s", path)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreError("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Foreign keys enforce the cascade from apps down to commands, so they
	// go in the DSN rather than a per-connection PRAGMA.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// PRAGMA synchronous=NORMAL provides 5-10x write speedup with WAL mode
	// (vs FULL which is default). Safe because WAL already provides crash
	// recovery.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{
		db:       db,
		dbPath:   path,
		appLocks: make(map[string]*sync.Mutex),
	}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Database schema initialized")

	if err := RunMigrations(db); err != nil {
		logging.StoreError("Failed to run migrations: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("Store initialization complete")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logging.Store("Closing store at %s", s.dbPath)
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// =============================================================================
// PER-APP SERIALIZATION
// =============================================================================

// appLock returns the mutex guarding writes for one app.
func (s *Store) appLock(appID string) *sync.Mutex {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	m, ok := s.appLocks[appID]
	if !ok {
		m = &sync.Mutex{}
		s.appLocks[appID] = m
	}
	return m
}

// LockApp blocks until this goroutine holds the app's write lock, then
// returns the release function. Explorations hold the lock across each
// screen's burst of writes so incremental and comprehensive sessions of the
// same app cannot interleave.
func (s *Store) LockApp(appID string) (release func()) {
	m := s.appLock(appID)
	m.Lock()
	return m.Unlock
}

// TryLockApp acquires the app's write lock without blocking. Returns
// ErrAppBusy if another session holds it.
func (s *Store) TryLockApp(appID string) (release func(), err error) {
	m := s.appLock(appID)
	if !m.TryLock() {
		return nil, ErrAppBusy
	}
	return m.Unlock, nil
}

// =============================================================================
// STATS
// =============================================================================

// Stats summarizes knowledge base contents.
type Stats struct {
	Apps            int
	Elements        int
	Screens         int
	HierarchyEdges  int
	NavigationEdges int
	Commands        int
	Sessions        int
	DBSizeBytes     int64
}

// GetStats returns row counts per table and the database file size.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	counts := []struct {
		table string
		dst   *int
	}{
		{"apps", &stats.Apps},
		{"elements", &stats.Elements},
		{"screen_states", &stats.Screens},
		{"hierarchy_edges", &stats.HierarchyEdges},
		{"navigation_edges", &stats.NavigationEdges},
		{"commands", &stats.Commands},
		{"exploration_sessions", &stats.Sessions},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return stats, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DBSizeBytes = info.Size()
	}
	return stats, nil
}
