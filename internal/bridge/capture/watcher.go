package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"uiscout/internal/config"
	"uiscout/internal/logging"
	"uiscout/internal/uitree"
)

// Watcher turns snapshot drops into screen-changed signals. It implements
// uitree.SignalSource. File events are debounced so a companion that writes
// a snapshot in several chunks produces one signal, not one per write.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	debounce time.Duration
	pending  map[string]time.Time
	latest   string
	paused   bool
	running  bool
	closed   bool

	sig    chan uitree.Signal
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher builds a watcher over the configured capture directory.
// Start begins delivery; Stop releases the inotify handle.
func NewWatcher(cfg config.CaptureConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		dir:      cfg.Dir,
		debounce: cfg.GetDebounce(),
		pending:  make(map[string]time.Time),
		sig:      make(chan uitree.Signal, 8),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Signals implements uitree.SignalSource. The channel closes on Stop.
func (w *Watcher) Signals() <-chan uitree.Signal { return w.sig }

// Latest returns the path of the most recent settled snapshot, or "" before
// the first drop.
func (w *Watcher) Latest() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest
}

// Pause drops incoming file events until Resume. The watcher keeps running;
// snapshots written while paused are never signaled.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
	logging.Capture("Capture paused")
}

// Resume ends a pause.
func (w *Watcher) Resume() {
	w.mu.Lock()
	w.paused = false
	w.mu.Unlock()
	logging.Capture("Capture resumed")
}

// Start begins watching the capture directory. Non-blocking; events flow on
// Signals until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New("watcher already stopped")
	}
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		logging.CaptureWarn("Failed to create capture dir %s: %v", w.dir, err)
	}
	if err := w.fsw.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Capture("Watching %s for snapshots", w.dir)

	go w.run(ctx)
	return nil
}

// Stop ends delivery, closes the signal channel, and releases the watcher.
// Safe to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.fsw.Close(); err != nil {
		logging.CaptureError("Failed to close watcher: %v", err)
	}
	close(w.sig)
	logging.Capture("Capture watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Settled events are collected on a fixed tick; the debounce window
	// itself comes from config.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.CaptureError("Watcher error: %v", err)
		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !IsSnapshot(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		return
	}
	w.pending[event.Name] = time.Now()
}

// flushSettled promotes snapshots whose events stopped arriving a debounce
// window ago and emits one screen-changed signal for the batch.
func (w *Watcher) flushSettled() {
	w.mu.Lock()
	now := time.Now()
	if w.paused {
		for path := range w.pending {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		return
	}

	settled := ""
	settledAt := time.Time{}
	for path, eventTime := range w.pending {
		if now.Sub(eventTime) < w.debounce {
			continue
		}
		delete(w.pending, path)
		if settled == "" || eventTime.After(settledAt) {
			settled = path
			settledAt = eventTime
		}
	}
	if settled != "" {
		w.latest = settled
	}
	w.mu.Unlock()

	if settled == "" {
		return
	}

	logging.CaptureDebug("Snapshot settled: %s", filepath.Base(settled))
	select {
	case w.sig <- uitree.SignalScreenChanged:
	default:
		logging.CaptureDebug("Signal buffer full, dropping screen change")
	}
}
