package store

import (
	"fmt"

	"uiscout/internal/logging"
)

// LeftAppScreen is the sentinel navigation target recorded when activating
// an element pushed navigation outside the explored app.
const LeftAppScreen = "left-app"

// HierarchyEdge links a parent element to one of its children within a
// screen's UI tree. child_order preserves sibling ordering.
type HierarchyEdge struct {
	AppID      string
	ParentHash string
	ChildHash  string
	ChildOrder int
}

// NavigationEdge records that activating ElementHash on FromScreen landed on
// ToScreen. Hits counts how often the transition was observed.
type NavigationEdge struct {
	AppID       string
	FromScreen  string
	ElementHash string
	ToScreen    string
	Hits        int
}

// UpsertHierarchyEdge records a parent-child containment edge.
func (s *Store) UpsertHierarchyEdge(e HierarchyEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAppLocked(s.db, e.AppID); err != nil {
		return err
	}
	return upsertHierarchyEdge(s.db, e)
}

func upsertHierarchyEdge(ex execer, e HierarchyEdge) error {
	_, err := ex.Exec(`
		INSERT INTO hierarchy_edges (app_id, parent_hash, child_hash, child_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(parent_hash, child_hash) DO UPDATE SET
			child_order = excluded.child_order
	`, e.AppID, e.ParentHash, e.ChildHash, e.ChildOrder)
	if err != nil {
		return fmt.Errorf("failed to upsert hierarchy edge: %w", err)
	}
	return nil
}

// UpsertNavigationEdge records a screen transition, incrementing the hit
// counter when the same transition has been seen before.
func (s *Store) UpsertNavigationEdge(e NavigationEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAppLocked(s.db, e.AppID); err != nil {
		return err
	}
	return upsertNavigationEdge(s.db, e)
}

func upsertNavigationEdge(ex execer, e NavigationEdge) error {
	_, err := ex.Exec(`
		INSERT INTO navigation_edges (app_id, from_screen, element_hash, to_screen, hits, last_seen)
		VALUES (?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(from_screen, element_hash, to_screen) DO UPDATE SET
			hits = navigation_edges.hits + 1,
			last_seen = CURRENT_TIMESTAMP
	`, e.AppID, e.FromScreen, e.ElementHash, e.ToScreen)
	if err != nil {
		return fmt.Errorf("failed to upsert navigation edge: %w", err)
	}
	return nil
}

// ChildEdges returns a parent's containment edges in sibling order.
func (s *Store) ChildEdges(parentHash string) ([]HierarchyEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT app_id, parent_hash, child_hash, child_order
		FROM hierarchy_edges WHERE parent_hash = ?
		ORDER BY child_order
	`, parentHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query hierarchy edges: %w", err)
	}
	defer rows.Close()

	var out []HierarchyEdge
	for rows.Next() {
		var e HierarchyEdge
		if err := rows.Scan(&e.AppID, &e.ParentHash, &e.ChildHash, &e.ChildOrder); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NavigationFrom returns the outgoing transitions of a screen, most
// frequently taken first.
func (s *Store) NavigationFrom(screenHash string) ([]NavigationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.navigationFromLocked(screenHash)
}

// navigationFromLocked queries outgoing edges. Callers must hold s.mu.
func (s *Store) navigationFromLocked(screenHash string) ([]NavigationEdge, error) {
	rows, err := s.db.Query(`
		SELECT app_id, from_screen, element_hash, to_screen, hits
		FROM navigation_edges WHERE from_screen = ?
		ORDER BY hits DESC
	`, screenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query navigation edges: %w", err)
	}
	defer rows.Close()

	var out []NavigationEdge
	for rows.Next() {
		var e NavigationEdge
		if err := rows.Scan(&e.AppID, &e.FromScreen, &e.ElementHash, &e.ToScreen, &e.Hits); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RouteBetween finds a sequence of navigation edges from one screen to
// another using BFS. Returns the activations to perform in order, or an
// error when no learned route exists within maxDepth hops.
func (s *Store) RouteBetween(fromScreen, toScreen string, maxDepth int) ([]NavigationEdge, error) {
	timer := logging.StartTimer(logging.CategoryStore, "RouteBetween")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 10
	}

	logging.StoreDebug("Route search: %s -> %s (maxDepth=%d)", fromScreen, toScreen, maxDepth)

	// cameFrom maps a screen to the edge that reached it; nil marks the
	// start. Backtracking from the target reconstructs the route without
	// storing full paths in the queue.
	type queueItem struct {
		screen string
		depth  int
	}
	cameFrom := make(map[string]*NavigationEdge)
	cameFrom[fromScreen] = nil
	queue := []queueItem{{screen: fromScreen, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.screen == toScreen {
			route := make([]NavigationEdge, current.depth)
			cursor := toScreen
			for i := current.depth - 1; i >= 0; i-- {
				edge := cameFrom[cursor]
				if edge == nil {
					break
				}
				route[i] = *edge
				cursor = edge.FromScreen
			}
			logging.StoreDebug("Route found with %d hops, visited %d screens", len(route), len(cameFrom))
			return route, nil
		}

		if current.depth >= maxDepth {
			continue
		}

		// Holding RLock already; calling NavigationFrom here would
		// re-acquire it and can deadlock against a waiting writer.
		edges, err := s.navigationFromLocked(current.screen)
		if err != nil {
			continue
		}
		for _, edge := range edges {
			if edge.ToScreen == LeftAppScreen {
				continue
			}
			if _, visited := cameFrom[edge.ToScreen]; !visited {
				e := edge
				cameFrom[edge.ToScreen] = &e
				queue = append(queue, queueItem{screen: edge.ToScreen, depth: current.depth + 1})
			}
		}
	}

	logging.StoreDebug("No route from %s to %s (visited %d screens)", fromScreen, toScreen, len(cameFrom))
	return nil, fmt.Errorf("no route found from %s to %s", fromScreen, toScreen)
}
