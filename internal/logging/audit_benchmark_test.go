package logging

import (
	"encoding/json"
	"testing"
)

func BenchmarkAuditEventMarshal(b *testing.B) {
	event := AuditEvent{
		Timestamp:   1724400000000,
		EventType:   AuditGestureActivate,
		SessionID:   "ses-bench",
		App:         "com.example.mail",
		ElementHash: "aabbccddeeff",
		ScreenHash:  "112233445566",
		Action:      "click",
		Success:     true,
		DurationMs:  42,
		Message:     "Gesture gesture_activate on aabbccddeeff (success=true, 42ms)",
		Fields:      map[string]interface{}{"depth": 3, "attempt": 1},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(event); err != nil {
			b.Fatal(err)
		}
	}
}
