// Package monitor records every handler invocation made by an event
// manager so slow, failing or panicking handlers can be inspected.
//
// Tracking is per (FireID, RegistrationID): every handler called by one
// Fire gets its own entry, and all of them share the fire id.
//
// Example usage:
//
//	store := monitor.NewMemoryStore(monitor.WithCapacity(1024))
//	defer store.Close()
//
//	m := event.New(event.WithObserver(monitor.NewRecorder(store)))
//
//	// Query monitor entries
//	page, err := store.List(ctx, monitor.Filter{
//	    Status:    []monitor.Status{monitor.StatusFailed, monitor.StatusPanicked},
//	    StartTime: time.Now().Add(-time.Hour),
//	    Limit:     100,
//	})
package monitor

import (
	"time"
)

// Status represents the outcome of a handler invocation.
type Status string

const (
	// StatusCompleted indicates the handler succeeded.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the handler returned an error.
	StatusFailed Status = "failed"

	// StatusPanicked indicates the handler panicked and was recovered.
	StatusPanicked Status = "panicked"
)

// ParseStatus parses a status name.
// Returns false for unknown values.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusCompleted, StatusFailed, StatusPanicked:
		return st, true
	default:
		return "", false
	}
}

// Entry represents a single handler invocation.
type Entry struct {
	// (FireID, RegistrationID) is the unique key
	FireID         string `json:"fire_id"`
	RegistrationID string `json:"registration_id"`

	// Event context
	EventID      string `json:"event_id"`
	Handler      string `json:"handler"`
	SubscriberID string `json:"subscriber_id,omitempty"`
	Manager      string `json:"manager,omitempty"`

	// Outcome
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	// Timing
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Tracing correlation (OpenTelemetry)
	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

// Key returns the entry's storage key.
func (e *Entry) Key() string {
	return makeKey(e.FireID, e.RegistrationID)
}

// Failed returns true if the handler returned an error or panicked.
func (e *Entry) Failed() bool {
	return e.Status == StatusFailed || e.Status == StatusPanicked
}

// HasError returns true if the entry has an error recorded.
func (e *Entry) HasError() bool {
	return e.Error != ""
}

func makeKey(fireID, registrationID string) string {
	return fireID + ":" + registrationID
}
