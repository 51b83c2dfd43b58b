// Package explore drives systematic exploration of an app's UI. An Engine
// reads the current screen through a platform bridge, fingerprints and
// classifies every element, persists what it learned, and, in comprehensive
// mode, activates each safe element in turn to discover the screens behind
// it. Incremental mode only registers screens as the user (or the bridge)
// surfaces them and never performs a gesture.
//
// One engine serves one app for one session. The session holds the app's
// store lock for its whole duration, so two engines can explore different
// apps concurrently but never the same app twice.
package explore

import (
	"errors"
)

// State is the exploration state machine. The zero value is StateIdle.
type State int32

const (
	// StateIdle means Run has not been called yet.
	StateIdle State = iota

	// StateRunning means the engine is actively reading or driving screens.
	StateRunning

	// StatePausedForLogin means a credential screen was detected; the
	// engine waits for a screen change before continuing.
	StatePausedForLogin

	// StatePausedByUser means the user paused the session; the engine
	// waits for an explicit resume.
	StatePausedByUser

	// StateCompleted means the session ended and its results are
	// persisted. A session cut short by its time or depth bounds, or
	// stopped by the user, still completes.
	StateCompleted

	// StateFailed means the session ended because of an unrecoverable
	// error, such as back recovery failing to return to the app.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePausedForLogin:
		return "paused_for_login"
	case StatePausedByUser:
		return "paused_by_user"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Mode selects how a session treats the screens it sees.
type Mode string

const (
	// ModeComprehensive walks the whole reachable UI graph, activating
	// every safe element, and stamps visited screens fully learned.
	ModeComprehensive Mode = "comprehensive"

	// ModeIncremental registers whatever screen is visible when the
	// bridge signals a change. It never activates anything.
	ModeIncremental Mode = "incremental"
)

// ErrAlreadyRunning is returned when an exploration is requested for an app
// that already has an active engine.
var ErrAlreadyRunning = errors.New("exploration already running")

// Internal sentinels for ending a walk. They are mapped to terminal states
// and session statuses in Engine.finish and never escape Run.
var (
	errStopped = errors.New("exploration stopped by user")
	errLostApp = errors.New("could not return to app")
)
