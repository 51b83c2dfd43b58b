// Audit logging for uiscout. Every gesture performed on the user's device,
// every safety decision, and every session transition is recorded as one JSON
// line, so a run can be reconstructed after the fact. The audit trail is the
// record of what the engine actually touched; category logs are diagnostics.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Gesture events - actions performed on the live screen
	AuditGestureActivate     AuditEventType = "gesture_activate"
	AuditGestureLongActivate AuditEventType = "gesture_long_activate"
	AuditGestureSetText      AuditEventType = "gesture_set_text"
	AuditGestureScroll       AuditEventType = "gesture_scroll"
	AuditGestureBack         AuditEventType = "gesture_back"
	AuditGestureError        AuditEventType = "gesture_error"

	// Safety events - why an element was or was not touched
	AuditSafetyAllow AuditEventType = "safety_allow"
	AuditSafetyBlock AuditEventType = "safety_block"

	// Session events
	AuditSessionStart  AuditEventType = "session_start"
	AuditSessionEnd    AuditEventType = "session_end"
	AuditSessionPause  AuditEventType = "session_pause"
	AuditSessionResume AuditEventType = "session_resume"

	// Screen events
	AuditScreenNew   AuditEventType = "screen_new"
	AuditScreenDedup AuditEventType = "screen_dedup"

	// Recovery events - returning from a foreign app
	AuditRecoveryBack   AuditEventType = "recovery_back"
	AuditRecoveryFailed AuditEventType = "recovery_failed"

	// Store events
	AuditStoreBatch AuditEventType = "store_batch"
	AuditStoreError AuditEventType = "store_error"
)

// =============================================================================
// AUDIT EVENT STRUCTURE
// =============================================================================

// AuditEvent represents one structured audit log entry
type AuditEvent struct {
	Timestamp   int64                  `json:"ts"`               // Unix milliseconds
	EventType   AuditEventType         `json:"event"`            // What happened
	Category    string                 `json:"cat,omitempty"`    // Log category
	SessionID   string                 `json:"session"`          // Exploration session correlation
	App         string                 `json:"app,omitempty"`    // App under exploration
	ElementHash string                 `json:"elem,omitempty"`   // Element fingerprint
	ScreenHash  string                 `json:"screen,omitempty"` // Screen fingerprint
	Action      string                 `json:"action,omitempty"` // Action being performed
	Success     bool                   `json:"success"`          // Operation succeeded
	DurationMs  int64                  `json:"dur_ms,omitempty"` // Duration in milliseconds
	Error       string                 `json:"error,omitempty"`  // Error message if failed
	Message     string                 `json:"msg"`              // Human-readable message
	Fields      map[string]interface{} `json:"fields,omitempty"` // Additional structured fields
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger handles structured audit logging, scoped to one session/app
type AuditLogger struct {
	sessionID string
	app       string
	category  Category
}

// InitAudit initializes the audit logging system
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n# One JSON event per line\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithSession creates an audit logger scoped to an exploration session
func AuditWithSession(sessionID, app string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID, app: app}
}

// =============================================================================
// AUDIT LOGGING METHODS
// =============================================================================

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	// Fill in defaults
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" && a.sessionID != "" {
		event.SessionID = a.sessionID
	}
	if event.App == "" && a.app != "" {
		event.App = a.app
	}
	if event.Category == "" && a.category != "" {
		event.Category = string(a.category)
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// =============================================================================
// CONVENIENCE METHODS FOR COMMON EVENTS
// =============================================================================

// Gesture logs a gesture performed against the live screen
func (a *AuditLogger) Gesture(eventType AuditEventType, elementHash string, durationMs int64, success bool, errMsg string) {
	a.Log(AuditEvent{
		EventType:   eventType,
		ElementHash: elementHash,
		Success:     success,
		DurationMs:  durationMs,
		Error:       errMsg,
		Message:     fmt.Sprintf("Gesture %s on %s (success=%v, %dms)", eventType, elementHash, success, durationMs),
	})
}

// SafetyDecision logs whether an element was cleared for automatic interaction
func (a *AuditLogger) SafetyDecision(elementHash, label string, allowed bool) {
	eventType := AuditSafetyAllow
	if !allowed {
		eventType = AuditSafetyBlock
	}
	a.Log(AuditEvent{
		EventType:   eventType,
		ElementHash: elementHash,
		Action:      label,
		Success:     allowed,
		Message:     fmt.Sprintf("Safety %s: %s classified %s", eventType, elementHash, label),
	})
}

// SessionStart logs the start of an exploration session
func (a *AuditLogger) SessionStart(sessionID, app, mode string) {
	a.Log(AuditEvent{
		EventType: AuditSessionStart,
		SessionID: sessionID,
		App:       app,
		Action:    mode,
		Success:   true,
		Message:   fmt.Sprintf("Session started: %s app=%s mode=%s", sessionID, app, mode),
	})
}

// SessionEnd logs the end of an exploration session
func (a *AuditLogger) SessionEnd(sessionID string, screens, elements int, durationMs int64, errMsg string) {
	a.Log(AuditEvent{
		EventType:  AuditSessionEnd,
		SessionID:  sessionID,
		Success:    errMsg == "",
		DurationMs: durationMs,
		Error:      errMsg,
		Fields:     map[string]interface{}{"screens": screens, "elements": elements},
		Message:    fmt.Sprintf("Session ended: %s (%d screens, %d elements, %dms)", sessionID, screens, elements, durationMs),
	})
}

// SessionPause logs a pause with its reason
func (a *AuditLogger) SessionPause(sessionID, reason string) {
	a.Log(AuditEvent{
		EventType: AuditSessionPause,
		SessionID: sessionID,
		Action:    reason,
		Success:   true,
		Message:   fmt.Sprintf("Session paused: %s (%s)", sessionID, reason),
	})
}

// SessionResume logs a resume
func (a *AuditLogger) SessionResume(sessionID string) {
	a.Log(AuditEvent{
		EventType: AuditSessionResume,
		SessionID: sessionID,
		Success:   true,
		Message:   fmt.Sprintf("Session resumed: %s", sessionID),
	})
}

// ScreenVisit logs arrival on a screen, noting whether it deduplicated onto a
// known record
func (a *AuditLogger) ScreenVisit(screenHash string, deduped bool, elementCount int) {
	eventType := AuditScreenNew
	if deduped {
		eventType = AuditScreenDedup
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		ScreenHash: screenHash,
		Success:    true,
		Fields:     map[string]interface{}{"elements": elementCount},
		Message:    fmt.Sprintf("Screen %s: %s (%d elements)", eventType, screenHash, elementCount),
	})
}

// RecoveryAttempt logs one back-press of a foreign-app recovery sequence
func (a *AuditLogger) RecoveryAttempt(attempt, maxAttempts int, recovered bool) {
	eventType := AuditRecoveryBack
	if !recovered && attempt >= maxAttempts {
		eventType = AuditRecoveryFailed
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Success:   recovered,
		Fields:    map[string]interface{}{"attempt": attempt, "max": maxAttempts},
		Message:   fmt.Sprintf("Recovery %s: attempt %d/%d", eventType, attempt, maxAttempts),
	})
}

// StoreBatch logs a flushed persistence batch
func (a *AuditLogger) StoreBatch(records int, durationMs int64, success bool, errMsg string) {
	eventType := AuditStoreBatch
	if !success {
		eventType = AuditStoreError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Fields:     map[string]interface{}{"records": records},
		Message:    fmt.Sprintf("Store batch: %d records (%dms, success=%v)", records, durationMs, success),
	})
}
