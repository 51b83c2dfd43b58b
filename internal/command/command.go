// Package command turns learned elements into voice phrases and resolves
// free-text utterances back to element actions.
//
// Generation derives phrases from the most specific label an element
// carries (description > text > resource-derived words) with an action verb
// implied by its capability. Unlabeled elements receive numbered fallback
// phrases ("button 3") from a monotonic per-type counter, and the assignment
// is surfaced through the Notifier so a UI can tell the user what the
// element is now called.
//
// Matching is read-only: it scores an utterance against a candidate set the
// caller scoped (usually one app, optionally one screen) and either returns
// the best element above the confidence threshold or reports no match.
// Guessing below the threshold is never acceptable for an engine that
// clicks things on a user's behalf.
package command

import "errors"

// ErrNoMatch is returned when no candidate scores above the threshold.
var ErrNoMatch = errors.New("no matching command")
