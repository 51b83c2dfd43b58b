// Package screen captures canonical snapshots of app screens and
// deduplicates near-identical ones. A screen's identity is a summary hash
// over its full element set; before a new screen record is created, the
// summary is compared against the most recently seen screens of the same app
// so that transient content (clock ticks, badges, animation frames) does not
// explode the screen count.
package screen

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"sync"

	"uiscout/internal/config"
	"uiscout/internal/logging"
)

// HashLen is the length in hex characters of a screen summary hash. Longer
// than element hashes because prefix comparison consumes it directly.
const HashLen = 16

// Snapshot is the canonical summary of one observed screen.
type Snapshot struct {
	App          string // owning app identifier
	ScreenID     string // screen/activity identifier, may be empty
	Hash         string // HashLen hex chars, order-independent over elements
	ElementCount int
}

// Summarize computes the canonical snapshot for a screen from the hashes of
// every element visible on it. Element order does not influence the summary:
// the hashes are sorted before digesting, so two walks of the same screen
// always summarize identically.
func Summarize(app, screenID string, elementHashes []string) Snapshot {
	sorted := make([]string, len(elementHashes))
	copy(sorted, elementHashes)
	sort.Strings(sorted)

	var b strings.Builder
	b.Grow(len(app) + 16 + len(sorted)*13)
	b.WriteString(app)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(len(sorted)))
	for _, h := range sorted {
		b.WriteByte('|')
		b.WriteString(h)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return Snapshot{
		App:          app,
		ScreenID:     screenID,
		Hash:         hex.EncodeToString(sum[:])[:HashLen],
		ElementCount: len(elementHashes),
	}
}

// PrefixSimilarity returns the fraction of positions at which the first
// prefixLen characters of two hashes agree. This positional comparison is the
// deliberate dedup primitive: it is cheap, stable, and isolated here so the
// comparison method can be swapped without touching callers.
func PrefixSimilarity(a, b string, prefixLen int) float64 {
	if prefixLen <= 0 {
		return 0
	}
	n := prefixLen
	if len(a) < n {
		n = len(a)
	}
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	agree := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			agree++
		}
	}
	return float64(agree) / float64(n)
}

// Manager tracks the recent-screen window per app and decides whether a new
// snapshot collapses onto an already known screen. Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	cfg    config.ScreenConfig
	recent map[string][]string // app -> screen hashes, newest first
}

// NewManager returns a Manager using the given dedup settings.
func NewManager(cfg config.ScreenConfig) *Manager {
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 10
	}
	if cfg.PrefixLength <= 0 {
		cfg.PrefixLength = HashLen
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.90
	}
	return &Manager{
		cfg:    cfg,
		recent: make(map[string][]string),
	}
}

// Seed preloads the recent window for an app, newest first. Called at session
// start with the screen hashes most recently persisted for the app, so dedup
// survives process restarts.
func (m *Manager) Seed(app string, hashes []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := hashes
	if len(window) > m.cfg.RecentWindow {
		window = window[:m.cfg.RecentWindow]
	}
	m.recent[app] = append([]string(nil), window...)
}

// Resolve decides the identity of a snapshot. If its summary agrees with a
// recently seen same-app screen to at least the similarity threshold, the
// existing screen's hash is returned with deduped=true and that screen moves
// to the front of the window. Otherwise the snapshot's own hash is recorded
// as a new screen.
func (m *Manager) Resolve(snap Snapshot) (hash string, deduped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := m.recent[snap.App]
	for i, known := range window {
		sim := PrefixSimilarity(snap.Hash, known, m.cfg.PrefixLength)
		if sim >= m.cfg.SimilarityThreshold {
			logging.ScreenDebug("screen %s collapsed onto %s (similarity %.2f, app %s)",
				snap.Hash, known, sim, snap.App)
			// Move to front: it is the most recently seen again.
			m.recent[snap.App] = promote(window, i)
			return known, true
		}
	}

	logging.ScreenDebug("new screen %s for app %s (%d elements)",
		snap.Hash, snap.App, snap.ElementCount)
	m.recent[snap.App] = pushFront(window, snap.Hash, m.cfg.RecentWindow)
	return snap.Hash, false
}

// Forget drops the recent window for an app. Used by relearn/delete so stale
// identities cannot absorb the app's fresh screens.
func (m *Manager) Forget(app string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recent, app)
}

func promote(window []string, i int) []string {
	if i == 0 {
		return window
	}
	h := window[i]
	copy(window[1:i+1], window[:i])
	window[0] = h
	return window
}

func pushFront(window []string, h string, max int) []string {
	window = append([]string{h}, window...)
	if len(window) > max {
		window = window[:max]
	}
	return window
}
