package models

import (
	"fmt"
	"time"
)

// Session is one end-to-end interview run. The ID is either returned by the
// backend start-session call or synthesized locally; it is the join key for
// the telemetry channel and all submissions. Immutable once created.
type Session struct {
	ID        string    `json:"session_id"`
	JobRole   string    `json:"job_role"`
	StartedAt time.Time `json:"started_at"`
}

// TempSessionID synthesizes a locally unique, time-based session id for runs
// where the backend did not return one.
func TempSessionID() string {
	return fmt.Sprintf("temp_%d", time.Now().UnixMilli())
}
