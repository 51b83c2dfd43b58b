package uitree

import (
	"context"
	"errors"
)

// ErrTreeUnavailable is returned by a TreeReader when no screen content can
// be captured right now (service disconnected, page gone, snapshot missing).
var ErrTreeUnavailable = errors.New("ui tree unavailable")

// TreeReader captures the UI tree of whatever screen is currently in the
// foreground.
type TreeReader interface {
	// CurrentScreenRoot returns the root node of the foreground screen.
	// Returns ErrTreeUnavailable (possibly wrapped) when nothing can be
	// captured.
	CurrentScreenRoot(ctx context.Context) (Node, error)
}

// ActionPerformer executes gestures against the live screen. Elements are
// addressed by fingerprint hash; the bridge resolves the hash back to a
// native handle. The bool result reports whether the platform accepted the
// gesture, an error reports transport failure.
type ActionPerformer interface {
	// Activate performs the element's primary action (click/tap).
	Activate(ctx context.Context, elementHash string) (bool, error)

	// LongActivate performs a long-press on the element.
	LongActivate(ctx context.Context, elementHash string) (bool, error)

	// SetText replaces the content of an editable element.
	SetText(ctx context.Context, elementHash, value string) (bool, error)

	// Scroll scrolls a scrollable element in the given direction.
	Scroll(ctx context.Context, elementHash string, dir ScrollDirection) (bool, error)

	// GoBack performs the platform's global back navigation.
	GoBack(ctx context.Context) (bool, error)
}

// ScrollDirection selects the axis and sense of a scroll gesture.
type ScrollDirection string

const (
	ScrollForward  ScrollDirection = "forward"
	ScrollBackward ScrollDirection = "backward"
)

// Signal is an asynchronous event delivered by the platform while an
// exploration runs.
type Signal int

const (
	// SignalScreenChanged fires when the foreground screen content changed.
	SignalScreenChanged Signal = iota
	// SignalUserPaused fires when the user asked to suspend exploration.
	SignalUserPaused
	// SignalUserResumed fires when the user asked to continue after a pause.
	SignalUserResumed
	// SignalUserStopped fires when the user asked to abort exploration.
	SignalUserStopped
)

// String returns a log-friendly name for the signal.
func (s Signal) String() string {
	switch s {
	case SignalScreenChanged:
		return "screen_changed"
	case SignalUserPaused:
		return "user_paused"
	case SignalUserResumed:
		return "user_resumed"
	case SignalUserStopped:
		return "user_stopped"
	}
	return "unknown"
}

// SignalSource delivers platform signals to the engine. The channel closes
// when the bridge shuts down.
type SignalSource interface {
	Signals() <-chan Signal
}

// Notifier receives user-facing announcements from the engine. Bridges
// forward them to whatever surface the platform offers (spoken feedback,
// notification, log line).
type Notifier interface {
	// FallbackAssigned announces that an unlabeled element received a
	// positional fallback phrase.
	FallbackAssigned(elementHash, phrase, summary string)

	// ExplorationFinished announces a terminal exploration state.
	ExplorationFinished(app string, screens, elements int, err error)
}
