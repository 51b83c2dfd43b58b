package explore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"uiscout/internal/config"
	"uiscout/internal/logging"
	"uiscout/internal/store"
)

// Manager runs at most one engine per app. Engines for different apps run
// concurrently; a second request for an app whose engine is still active is
// rejected.
type Manager struct {
	cfg *config.Config
	st  *store.Store

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewManager builds an empty engine registry.
func NewManager(cfg *config.Config, st *store.Store) *Manager {
	return &Manager{
		cfg:     cfg,
		st:      st,
		engines: make(map[string]*Engine),
	}
}

// Start launches an exploration session for an app in its own goroutine and
// returns the engine for progress polling and control. Deps.Store defaults
// to the manager's store.
func (m *Manager) Start(ctx context.Context, appID, appVersion string, mode Mode, deps Deps) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.engines[appID]; ok && !prev.State().Terminal() {
		return nil, fmt.Errorf("app %s: %w", appID, ErrAlreadyRunning)
	}
	if deps.Store == nil {
		deps.Store = m.st
	}

	eng := New(m.cfg, appID, appVersion, mode, deps)
	m.engines[appID] = eng
	go func() {
		if err := eng.Run(ctx); err != nil {
			logging.SessionError("Exploration of %s failed: %v", appID, err)
		}
	}()
	return eng, nil
}

// Engine returns the most recent engine for an app, running or finished.
func (m *Manager) Engine(appID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eng, ok := m.engines[appID]
	return eng, ok
}

// Progress snapshots every tracked session, sorted by app.
func (m *Manager) Progress() []Progress {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.Unlock()

	out := make([]Progress, 0, len(engines))
	for _, eng := range engines {
		out = append(out, eng.Progress())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].App < out[j].App })
	return out
}

// StopAll asks every active engine to end its session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.Unlock()

	for _, eng := range engines {
		if !eng.State().Terminal() {
			eng.Stop()
		}
	}
}

// Wait blocks until every tracked engine has reached a terminal state.
func (m *Manager) Wait() {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.Unlock()

	for _, eng := range engines {
		<-eng.Done()
	}
}
