package store

import (
	"fmt"
	"time"

	"uiscout/internal/logging"
)

// Batch buffers writes for one app and flushes them as a single transaction.
// Comprehensive exploration batches each screen's records so a hundred
// elements cost one fsync instead of a hundred.
//
// A Batch is not safe for concurrent use; each exploration goroutine owns
// its own.
type Batch struct {
	store *Store
	appID string

	screens  []ScreenRecord
	elements []ElementRecord
	hEdges   []HierarchyEdge
	nEdges   []NavigationEdge
	commands []CommandRecord
}

// NewBatch starts an empty batch for one app.
func (s *Store) NewBatch(appID string) *Batch {
	return &Batch{store: s, appID: appID}
}

func (b *Batch) AddScreen(rec ScreenRecord) {
	rec.AppID = b.appID
	b.screens = append(b.screens, rec)
}

func (b *Batch) AddElement(rec ElementRecord) {
	rec.AppID = b.appID
	b.elements = append(b.elements, rec)
}

func (b *Batch) AddHierarchyEdge(e HierarchyEdge) {
	e.AppID = b.appID
	b.hEdges = append(b.hEdges, e)
}

func (b *Batch) AddNavigationEdge(e NavigationEdge) {
	e.AppID = b.appID
	b.nEdges = append(b.nEdges, e)
}

func (b *Batch) AddCommand(rec CommandRecord) {
	rec.AppID = b.appID
	b.commands = append(b.commands, rec)
}

// Len returns the number of buffered records.
func (b *Batch) Len() int {
	return len(b.screens) + len(b.elements) + len(b.hEdges) + len(b.nEdges) + len(b.commands)
}

// Discard drops the buffered records without writing.
func (b *Batch) Discard() {
	b.screens = nil
	b.elements = nil
	b.hEdges = nil
	b.nEdges = nil
	b.commands = nil
}

// Flush writes every buffered record in one transaction and clears the
// buffer. Ordering inside the transaction satisfies foreign keys: app, then
// screens, elements, edges, commands. On error the transaction rolls back
// and the buffer is kept so the caller may retry.
func (b *Batch) Flush() error {
	if b.Len() == 0 {
		return nil
	}

	timer := logging.StartTimer(logging.CategoryStore, "Batch.Flush")
	defer timer.Stop()
	start := time.Now()
	total := b.Len()

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureAppLocked(tx, b.appID); err != nil {
		return err
	}

	for _, rec := range b.screens {
		if err := upsertScreen(tx, rec); err != nil {
			logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), false, err.Error())
			return err
		}
	}
	for _, rec := range b.elements {
		if err := upsertElement(tx, rec); err != nil {
			logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), false, err.Error())
			return err
		}
	}

	// Edges are the bulk of a screen's records; prepare once, execute per
	// row.
	hStmt, err := tx.Prepare(`
		INSERT INTO hierarchy_edges (app_id, parent_hash, child_hash, child_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(parent_hash, child_hash) DO UPDATE SET
			child_order = excluded.child_order
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare hierarchy statement: %w", err)
	}
	defer hStmt.Close()
	for _, e := range b.hEdges {
		if _, err := hStmt.Exec(e.AppID, e.ParentHash, e.ChildHash, e.ChildOrder); err != nil {
			logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), false, err.Error())
			return fmt.Errorf("failed to insert hierarchy edge: %w", err)
		}
	}

	nStmt, err := tx.Prepare(`
		INSERT INTO navigation_edges (app_id, from_screen, element_hash, to_screen, hits, last_seen)
		VALUES (?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(from_screen, element_hash, to_screen) DO UPDATE SET
			hits = navigation_edges.hits + 1,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare navigation statement: %w", err)
	}
	defer nStmt.Close()
	for _, e := range b.nEdges {
		if _, err := nStmt.Exec(e.AppID, e.FromScreen, e.ElementHash, e.ToScreen); err != nil {
			logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), false, err.Error())
			return fmt.Errorf("failed to insert navigation edge: %w", err)
		}
	}

	for _, rec := range b.commands {
		if err := s.ensureElementLocked(tx, rec.ElementHash, rec.AppID); err != nil {
			return err
		}
		if err := upsertCommand(tx, rec); err != nil {
			logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), false, err.Error())
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), false, err.Error())
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	logging.Audit().StoreBatch(total, time.Since(start).Milliseconds(), true, "")
	logging.StoreDebug("Flushed batch for %s: %d screens, %d elements, %d+%d edges, %d commands",
		b.appID, len(b.screens), len(b.elements), len(b.hEdges), len(b.nEdges), len(b.commands))

	b.Discard()
	return nil
}
