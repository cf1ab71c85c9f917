package run

import (
	"time"

	"github.com/google/uuid"
)

// Status is the fixed run-record vocabulary.
type Status string

const (
	// StatusFailed marks a recipient that could not be sent on the primary
	// channel (unusable phone number, or primary dispatch rejected).
	StatusFailed Status = "failed"
	// StatusSent marks a successful primary dispatch.
	StatusSent Status = "sent"
	// StatusSMSSent marks a successful fallback dispatch.
	StatusSMSSent Status = "sms_sent"
	// StatusSMSFailed marks a failed fallback dispatch.
	StatusSMSFailed Status = "sms_failed"
)

// Record is one run-log entry: one per dispatch attempt (or per
// normalization failure). Immutable once written.
type Record struct {
	Timestamp time.Time
	Phone     string
	FirstName string
	Status    Status
	Info      string
	RunID     string
	Message   string
}

// Recorder appends records to the run log. The log is append-only and
// write-only from the orchestrator's perspective.
type Recorder interface {
	Append(rec Record) error
}

// NewRunID returns a process-scoped run identifier: a timestamp plus a short
// random suffix, e.g. 20260824-153012-a1b2c3.
func NewRunID() string {
	return time.Now().Format("20060102-150405") + "-" + uuid.New().String()[:6]
}
