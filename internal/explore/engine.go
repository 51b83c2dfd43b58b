package explore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"uiscout/internal/classify"
	"uiscout/internal/command"
	"uiscout/internal/config"
	"uiscout/internal/fingerprint"
	"uiscout/internal/logging"
	"uiscout/internal/screen"
	"uiscout/internal/store"
	"uiscout/internal/uitree"
)

// Deps bundles the external collaborators an engine needs. Store, Reader,
// and Actions are required; Signals is required for incremental mode and for
// pause/resume driven by the bridge; Notifier may be nil.
type Deps struct {
	Store    *store.Store
	Reader   uitree.TreeReader
	Actions  uitree.ActionPerformer
	Signals  uitree.SignalSource
	Notifier uitree.Notifier
}

// Progress is a point-in-time snapshot of a session, safe to read from any
// goroutine while the engine runs.
type Progress struct {
	SessionID string
	App       string
	Mode      Mode
	State     State
	Screens   int // distinct screens visited this session
	Elements  int // element registrations, including re-encounters
	Commands  int // voice commands generated
	Depth     int // deepest navigation level reached
	StartedAt time.Time
	Err       string
}

// Engine explores one app for one session.
type Engine struct {
	cfg      config.ExploreConfig
	window   int // dedup window size, mirrors screen config
	appID    string
	version  string
	mode     Mode
	strategy Strategy

	st       *store.Store
	reader   uitree.TreeReader
	actions  uitree.ActionPerformer
	signals  uitree.SignalSource
	notifier uitree.Notifier

	prints     *fingerprint.Generator
	screens    *screen.Manager
	classifier *classify.Classifier
	commands   *command.Generator

	sessionID string
	audit     *logging.AuditLogger

	state   int32 // atomic State
	control chan uitree.Signal
	done    chan struct{}

	mu           sync.Mutex
	startedAt    time.Time
	screensSeen  int
	elementsSeen int
	commandsMade int
	deepest      int
	partial      bool // some branch was cut by a bound or an abandoned step
	runErr       error
	visited      map[string]bool // screen hashes registered this session
	generated    map[string]bool // element hashes whose commands exist
}

// New builds an engine for one app and one session. Run starts it.
func New(cfg *config.Config, appID, appVersion string, mode Mode, deps Deps) *Engine {
	classifier := classify.New()
	classifier.Extend(cfg.Safety.ExtraDangerTerms, cfg.Safety.ExtraCredentialTerms)

	e := &Engine{
		cfg:        cfg.Explore,
		window:     cfg.Screen.RecentWindow,
		appID:      appID,
		version:    appVersion,
		mode:       mode,
		strategy:   StrategyFor(cfg.Explore.Strategy),
		st:         deps.Store,
		reader:     deps.Reader,
		actions:    deps.Actions,
		signals:    deps.Signals,
		notifier:   deps.Notifier,
		prints:     fingerprint.New(fingerprint.Config{App: appID, Version: appVersion}),
		screens:    screen.NewManager(cfg.Screen),
		classifier: classifier,
		commands:   command.NewGenerator(cfg.Command, deps.Store, deps.Notifier),
		sessionID:  uuid.NewString(),
		control:    make(chan uitree.Signal, 32),
		done:       make(chan struct{}),
		visited:    make(map[string]bool),
		generated:  make(map[string]bool),
	}
	e.audit = logging.AuditWithSession(e.sessionID, appID)
	return e
}

// SessionID returns the session's correlation id.
func (e *Engine) SessionID() string { return e.sessionID }

// App returns the app under exploration.
func (e *Engine) App() string { return e.appID }

// State returns the current state machine state.
func (e *Engine) State() State {
	return State(atomic.LoadInt32(&e.state))
}

func (e *Engine) setState(s State) {
	atomic.StoreInt32(&e.state, int32(s))
}

// Done is closed when the session reaches a terminal state.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Err returns the error that failed the session, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runErr
}

// Progress returns a snapshot of the session's counters.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := Progress{
		SessionID: e.sessionID,
		App:       e.appID,
		Mode:      e.mode,
		State:     e.State(),
		Screens:   e.screensSeen,
		Elements:  e.elementsSeen,
		Commands:  e.commandsMade,
		Depth:     e.deepest,
		StartedAt: e.startedAt,
	}
	if e.runErr != nil {
		p.Err = e.runErr.Error()
	}
	return p
}

// Pause asks the engine to pause at its next suspension point.
func (e *Engine) Pause() { e.signal(uitree.SignalUserPaused) }

// Resume asks a paused engine to continue.
func (e *Engine) Resume() { e.signal(uitree.SignalUserResumed) }

// Stop asks the engine to end the session. Everything registered so far
// stays persisted.
func (e *Engine) Stop() { e.signal(uitree.SignalUserStopped) }

func (e *Engine) signal(sig uitree.Signal) {
	select {
	case e.control <- sig:
	case <-e.done:
	}
}

// Run executes the session and blocks until it reaches a terminal state.
// The returned error is nil unless the session failed; sessions that were
// stopped or ran into their time or depth bounds complete normally with
// whatever they learned.
func (e *Engine) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.state, int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("session for %s already started (state %s)", e.appID, e.State())
	}
	defer close(e.done)

	if e.mode != ModeIncremental && e.actions == nil {
		err := errors.New("comprehensive exploration requires an action performer")
		e.setState(StateFailed)
		e.mu.Lock()
		e.runErr = err
		e.mu.Unlock()
		return err
	}

	unlock, err := e.st.TryLockApp(e.appID)
	if err != nil {
		e.setState(StateFailed)
		e.mu.Lock()
		e.runErr = err
		e.mu.Unlock()
		return err
	}
	defer unlock()

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.GetMaxDuration())
	defer cancel()

	e.mu.Lock()
	e.startedAt = time.Now()
	e.mu.Unlock()

	logging.Session("Session %s starting: app=%s version=%s mode=%s strategy=%s",
		e.sessionID, e.appID, e.version, e.mode, e.strategy.Name())
	e.audit.SessionStart(e.sessionID, e.appID, string(e.mode))

	if err := e.st.UpsertApp(store.AppRecord{AppID: e.appID, Version: e.version}); err != nil {
		logging.StoreWarn("Failed to register app %s: %v", e.appID, err)
	}
	if err := e.st.CreateSession(store.SessionRecord{
		ID:    e.sessionID,
		AppID: e.appID,
		Mode:  string(e.mode),
	}); err != nil {
		logging.StoreWarn("Failed to record session %s: %v", e.sessionID, err)
	}

	// Screens learned in earlier sessions seed the dedup window so a
	// relaunch does not re-register the entry screens as new.
	if recent, err := e.st.RecentScreenHashes(e.appID, e.window); err == nil && len(recent) > 0 {
		e.screens.Seed(e.appID, recent)
	}

	if e.signals != nil {
		go e.pump(runCtx)
	}

	var runErr error
	switch e.mode {
	case ModeIncremental:
		runErr = e.runIncremental(runCtx)
	default:
		runErr = e.runComprehensive(runCtx)
	}
	return e.finish(runErr)
}

// pump forwards bridge signals into the control channel until the session
// context ends or the source closes.
func (e *Engine) pump(ctx context.Context) {
	ch := e.signals.Signals()
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			select {
			case e.control <- sig:
			case <-ctx.Done():
				return
			}
		}
	}
}

// finish maps the walk's outcome onto a terminal state, the session record,
// and the app's exploration status.
func (e *Engine) finish(runErr error) error {
	e.mu.Lock()
	screens, elements := e.screensSeen, e.elementsSeen
	started := e.startedAt
	partial := e.partial
	e.mu.Unlock()
	durMs := time.Since(started).Milliseconds()

	status := store.SessionCompleted
	terminal := StateCompleted
	var cause error
	switch {
	case runErr == nil:
	case errors.Is(runErr, errStopped), errors.Is(runErr, context.Canceled):
		status = store.SessionStopped
		partial = true
	case errors.Is(runErr, context.DeadlineExceeded):
		// The time bound ended the walk; what was learned is kept.
		logging.Session("Session %s hit its time bound after %dms", e.sessionID, durMs)
		partial = true
	default:
		status = store.SessionFailed
		terminal = StateFailed
		cause = runErr
	}

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
		e.mu.Lock()
		e.runErr = cause
		e.mu.Unlock()
	}

	if err := e.st.FinishSession(e.sessionID, status, errMsg, screens, elements); err != nil {
		logging.StoreWarn("Failed to record end of session %s: %v", e.sessionID, err)
	}
	e.updateAppStatus(cause, partial, screens)

	e.setState(terminal)
	e.audit.SessionEnd(e.sessionID, screens, elements, durMs, errMsg)
	logging.Session("Session %s finished: state=%s screens=%d elements=%d commands=%d dur=%dms",
		e.sessionID, terminal, screens, elements, e.Progress().Commands, durMs)

	if e.notifier != nil {
		e.notifier.ExplorationFinished(e.appID, screens, elements, cause)
	}
	return cause
}

// updateAppStatus promotes the app's exploration status. A clean
// comprehensive walk marks the app complete; any partial progress marks it
// partial. Status never moves backwards.
func (e *Engine) updateAppStatus(cause error, partial bool, screens int) {
	if cause == nil && !partial && e.mode == ModeComprehensive {
		if err := e.st.SetAppStatus(e.appID, store.StatusComplete); err != nil {
			logging.StoreWarn("Failed to mark %s complete: %v", e.appID, err)
		}
		return
	}
	if screens == 0 {
		return
	}
	app, err := e.st.GetApp(e.appID)
	if err == nil && app.Status == store.StatusComplete {
		return
	}
	if err := e.st.SetAppStatus(e.appID, store.StatusPartial); err != nil {
		logging.StoreWarn("Failed to mark %s partial: %v", e.appID, err)
	}
}

func (e *Engine) notePartial() {
	e.mu.Lock()
	e.partial = true
	e.mu.Unlock()
}

// =============================================================================
// CONTROL FLOW - pause, resume, stop
// =============================================================================

// checkControl processes pending control signals without blocking, except
// that a pause blocks until the matching resume. Returns errStopped when the
// user ends the session.
func (e *Engine) checkControl(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-e.control:
			switch sig {
			case uitree.SignalUserStopped:
				return errStopped
			case uitree.SignalUserPaused:
				if err := e.pauseUntilResumed(ctx); err != nil {
					return err
				}
			default:
				// Screen changes matter only to login waits.
			}
		default:
			return nil
		}
	}
}

func (e *Engine) pauseUntilResumed(ctx context.Context) error {
	e.setState(StatePausedByUser)
	e.audit.SessionPause(e.sessionID, "user")
	logging.Session("Session %s paused by user", e.sessionID)
	if err := e.st.UpdateSessionProgress(e.sessionID, store.SessionPausedUser, e.Progress().Screens, e.Progress().Elements); err != nil {
		logging.StoreDebug("Failed to record pause: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-e.control:
			switch sig {
			case uitree.SignalUserResumed:
				e.resumeRunning()
				return nil
			case uitree.SignalUserStopped:
				return errStopped
			}
		}
	}
}

// waitForLogin holds the session in the login-pause state until the bridge
// reports that the screen changed, which is taken to mean the user finished
// signing in.
func (e *Engine) waitForLogin(ctx context.Context) error {
	e.setState(StatePausedForLogin)
	e.audit.SessionPause(e.sessionID, "login")
	logging.Session("Session %s paused for login", e.sessionID)
	if err := e.st.UpdateSessionProgress(e.sessionID, store.SessionPausedLogin, e.Progress().Screens, e.Progress().Elements); err != nil {
		logging.StoreDebug("Failed to record login pause: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-e.control:
			switch sig {
			case uitree.SignalScreenChanged, uitree.SignalUserResumed:
				e.resumeRunning()
				return nil
			case uitree.SignalUserStopped:
				return errStopped
			case uitree.SignalUserPaused:
				if err := e.pauseUntilResumed(ctx); err != nil {
					return err
				}
				return nil
			}
		}
	}
}

func (e *Engine) resumeRunning() {
	e.setState(StateRunning)
	e.audit.SessionResume(e.sessionID)
	logging.Session("Session %s resumed", e.sessionID)
	if err := e.st.UpdateSessionProgress(e.sessionID, store.SessionRunning, e.Progress().Screens, e.Progress().Elements); err != nil {
		logging.StoreDebug("Failed to record resume: %v", err)
	}
}

// =============================================================================
// SCREEN CAPTURE
// =============================================================================

// readTree captures the current screen, retrying a few times because
// bridges routinely return nothing while a transition animation runs.
func (e *Engine) readTree(ctx context.Context) (uitree.Node, error) {
	retries := e.cfg.TreeReadRetries
	if retries <= 0 {
		retries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		root, err := e.reader.CurrentScreenRoot(ctx)
		if err == nil && root != nil {
			return root, nil
		}
		lastErr = err
		if lastErr == nil {
			lastErr = errors.New("bridge returned an empty tree")
		}
		logging.ExploreDebug("Tree read %d/%d failed: %v", attempt, retries, lastErr)
		if attempt < retries {
			if err := e.sleep(ctx, e.cfg.GetSettleDelay()); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("screen capture failed after %d attempts: %w", retries, lastErr)
}

// sleep waits for the settle delay unless the session context ends first.
func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// =============================================================================
// COMPREHENSIVE MODE
// =============================================================================

func (e *Engine) runComprehensive(ctx context.Context) error {
	root, err := e.readTree(ctx)
	if err != nil {
		return err
	}
	if app := root.Attrs().App; app != "" && app != e.appID {
		return fmt.Errorf("foreground app is %q, expected %q", app, e.appID)
	}
	return e.exploreScreen(ctx, root, 0)
}

// exploreScreen registers the screen under root and activates each of its
// safe elements, descending into whatever screens the activations reveal.
func (e *Engine) exploreScreen(ctx context.Context, root uitree.Node, depth int) error {
	if err := e.checkControl(ctx); err != nil {
		return err
	}

	shot := e.capture(root)
	screenHash, deduped := e.screens.Resolve(shot.snap)
	firstVisit := !e.visited[screenHash]
	e.visited[screenHash] = true

	cmds, err := e.persistScreen(shot, screenHash, depth)
	if err != nil {
		return err
	}
	e.recordVisit(shot, screenHash, firstVisit, deduped, depth, cmds)

	// Credential screens are registered but never driven. The user signs
	// in; the bridge signals the screen that follows.
	if e.classifier.IsCredentialScreen(root) {
		logging.Safety("Credential screen %s detected, pausing for login", screenHash)
		if err := e.waitForLogin(ctx); err != nil {
			return err
		}
		next, err := e.readTree(ctx)
		if err != nil {
			return err
		}
		if app := next.Attrs().App; app != "" && app != e.appID {
			next, err = e.recoverBack(ctx)
			if err != nil {
				return err
			}
		}
		return e.exploreScreen(ctx, next, depth)
	}

	if !firstVisit {
		// The walk already drove this screen's elements this session.
		return nil
	}
	if depth >= e.cfg.MaxDepth && e.cfg.MaxDepth > 0 {
		logging.Explore("Depth bound %d reached at %s; registering without driving", e.cfg.MaxDepth, screenHash)
		e.notePartial()
		return nil
	}

	candidates := e.strategy.Order(e.safeCandidates(shot, screenHash))
	for _, cand := range candidates {
		if err := e.checkControl(ctx); err != nil {
			return err
		}
		cont, err := e.driveElement(ctx, screenHash, cand, depth)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}

	// Every safe element on this screen has been activated at least once.
	if err := e.st.MarkScreenFullyLearned(e.appID, screenHash); err != nil {
		logging.StoreWarn("Failed to mark %s fully learned: %v", screenHash, err)
	}
	return nil
}

// driveElement activates one candidate and handles whatever the activation
// leads to. The bool result reports whether the caller may continue with the
// screen's remaining candidates.
func (e *Engine) driveElement(ctx context.Context, fromScreen string, cand Candidate, depth int) (bool, error) {
	start := time.Now()
	ok, actErr := e.actions.Activate(ctx, cand.Hash)
	e.audit.Gesture(logging.AuditGestureActivate, cand.Hash, time.Since(start).Milliseconds(), ok && actErr == nil, errString(actErr))
	if actErr != nil || !ok {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logging.ExploreDebug("Activation of %s declined: ok=%v err=%v", cand.Hash, ok, actErr)
		return true, nil
	}
	if err := e.sleep(ctx, e.cfg.GetSettleDelay()); err != nil {
		return false, err
	}

	next, err := e.readTree(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// The screen may have changed under us; stop driving the rest of
		// this screen rather than clicking blind.
		logging.ExploreWarn("Abandoning screen %s after capture failure: %v", fromScreen, err)
		e.notePartial()
		return false, nil
	}

	if app := next.Attrs().App; app != "" && app != e.appID {
		// The gesture escaped the app. Remember where the element leads,
		// then press back until the app owns the screen again.
		logging.Explore("Element %s left the app for %s", cand.Hash, app)
		e.recordNavigation(fromScreen, cand.Hash, store.LeftAppScreen)
		recovered, err := e.recoverBack(ctx)
		if err != nil {
			return false, err
		}
		return e.continueIfOnScreen(recovered, fromScreen)
	}

	resolved, _ := e.screens.Resolve(e.summarizeRoot(next))
	if resolved == fromScreen {
		// No navigation; the element acted in place.
		return true, nil
	}

	e.recordNavigation(fromScreen, cand.Hash, resolved)
	if err := e.exploreScreen(ctx, next, depth+1); err != nil {
		return false, err
	}
	return e.returnToScreen(ctx, fromScreen)
}

// recoverBack presses back until the target app owns the screen again, up
// to the configured number of attempts.
func (e *Engine) recoverBack(ctx context.Context) (uitree.Node, error) {
	max := e.cfg.BackRecoveryAttempts
	if max <= 0 {
		max = 1
	}
	for attempt := 1; attempt <= max; attempt++ {
		ok, err := e.actions.GoBack(ctx)
		e.audit.Gesture(logging.AuditGestureBack, "", 0, ok && err == nil, errString(err))
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := e.sleep(ctx, e.cfg.GetSettleDelay()); err != nil {
			return nil, err
		}
		root, err := e.readTree(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.audit.RecoveryAttempt(attempt, max, false)
			continue
		}
		if app := root.Attrs().App; app == "" || app == e.appID {
			e.audit.RecoveryAttempt(attempt, max, true)
			logging.Explore("Recovered into %s after %d back presses", e.appID, attempt)
			return root, nil
		}
		e.audit.RecoveryAttempt(attempt, max, false)
	}
	logging.ExploreError("Back recovery exhausted after %d attempts", max)
	return nil, fmt.Errorf("%w after %d back presses", errLostApp, max)
}

// continueIfOnScreen checks whether a recovery landed back on the screen
// being driven. If it landed elsewhere in the app, the screen's remaining
// elements are left for another session.
func (e *Engine) continueIfOnScreen(root uitree.Node, want string) (bool, error) {
	resolved, _ := e.screens.Resolve(e.summarizeRoot(root))
	if resolved == want {
		return true, nil
	}
	logging.Explore("Recovery landed on %s, not %s; abandoning remaining elements", resolved, want)
	e.notePartial()
	return false, nil
}

// returnToScreen presses back after a child screen was explored, trying to
// get back to the screen whose elements are still being driven.
func (e *Engine) returnToScreen(ctx context.Context, want string) (bool, error) {
	max := e.cfg.BackRecoveryAttempts
	if max <= 0 {
		max = 1
	}
	for attempt := 1; attempt <= max; attempt++ {
		ok, err := e.actions.GoBack(ctx)
		e.audit.Gesture(logging.AuditGestureBack, "", 0, ok && err == nil, errString(err))
		if err != nil && ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err := e.sleep(ctx, e.cfg.GetSettleDelay()); err != nil {
			return false, err
		}
		root, err := e.readTree(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			continue
		}
		if app := root.Attrs().App; app != "" && app != e.appID {
			root, err = e.recoverBack(ctx)
			if err != nil {
				return false, err
			}
		}
		resolved, _ := e.screens.Resolve(e.summarizeRoot(root))
		if resolved == want {
			return true, nil
		}
	}
	logging.Explore("Could not return to %s; abandoning its remaining elements", want)
	e.notePartial()
	return false, nil
}

// =============================================================================
// INCREMENTAL MODE
// =============================================================================

// runIncremental registers the visible screen whenever the bridge signals a
// change. It performs no gestures.
func (e *Engine) runIncremental(ctx context.Context) error {
	if e.signals == nil {
		return errors.New("incremental mode requires a signal source")
	}
	if err := e.captureVisible(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.ExploreWarn("Initial capture failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-e.control:
			switch sig {
			case uitree.SignalScreenChanged:
				if err := e.captureVisible(ctx); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					logging.ExploreWarn("Capture failed: %v", err)
				}
			case uitree.SignalUserStopped:
				return errStopped
			case uitree.SignalUserPaused:
				if err := e.pauseUntilResumed(ctx); err != nil {
					return err
				}
			}
		}
	}
}

// captureVisible registers the currently-visible screen without touching it.
// Screens owned by other apps are ignored.
func (e *Engine) captureVisible(ctx context.Context) error {
	root, err := e.readTree(ctx)
	if err != nil {
		return err
	}
	if app := root.Attrs().App; app != "" && app != e.appID {
		logging.ExploreDebug("Ignoring screen owned by %s", app)
		return nil
	}
	shot := e.capture(root)
	screenHash, deduped := e.screens.Resolve(shot.snap)
	firstVisit := !e.visited[screenHash]
	e.visited[screenHash] = true

	cmds, err := e.persistScreen(shot, screenHash, 0)
	if err != nil {
		return err
	}
	e.recordVisit(shot, screenHash, firstVisit, deduped, 0, cmds)
	return nil
}

// =============================================================================
// BOOKKEEPING
// =============================================================================

// recordVisit updates the session counters and the audit trail after a
// screen registration.
func (e *Engine) recordVisit(c *capture, screenHash string, firstVisit, deduped bool, depth, cmds int) {
	e.mu.Lock()
	if firstVisit {
		e.screensSeen++
	}
	e.elementsSeen += len(c.elements)
	e.commandsMade += cmds
	if depth > e.deepest {
		e.deepest = depth
	}
	screens, elements := e.screensSeen, e.elementsSeen
	e.mu.Unlock()

	e.audit.ScreenVisit(screenHash, !firstVisit, len(c.elements))
	logging.Screen("Visited %s: %d elements, %d commands, depth %d (deduped=%v)",
		screenHash, len(c.elements), cmds, depth, deduped)

	if err := e.st.UpdateSessionProgress(e.sessionID, store.SessionRunning, screens, elements); err != nil {
		logging.StoreDebug("Failed to record progress: %v", err)
	}
}

// recordNavigation persists one navigation edge immediately. Edge discovery
// happens while a screen is being driven, after its batch already flushed.
func (e *Engine) recordNavigation(from, via, to string) {
	err := e.st.UpsertNavigationEdge(store.NavigationEdge{
		AppID:       e.appID,
		FromScreen:  from,
		ElementHash: via,
		ToScreen:    to,
	})
	if err != nil {
		logging.StoreWarn("Failed to record navigation %s -> %s: %v", from, to, err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
