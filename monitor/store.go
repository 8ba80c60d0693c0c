package monitor

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed is returned by every Store method after Close.
var ErrStoreClosed = errors.New("monitor store is closed")

// Store defines the interface for monitor storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record creates or replaces an entry keyed by (FireID, RegistrationID).
	Record(ctx context.Context, entry *Entry) error

	// Get retrieves an entry by its key. A missing entry yields nil, nil.
	Get(ctx context.Context, fireID, registrationID string) (*Entry, error)

	// GetByFireID returns every handler invocation of one fire, ordered by
	// start time.
	GetByFireID(ctx context.Context, fireID string) ([]*Entry, error)

	// List returns a page of entries matching the filter.
	// Uses cursor-based pagination for efficient large dataset traversal.
	List(ctx context.Context, filter Filter) (*Page, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// DeleteOlderThan removes entries older than the specified age.
	// Returns the number of entries deleted.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// Close releases the store.
	Close() error
}

// Filter specifies criteria for listing monitor entries.
// All fields are optional. Empty filter returns all entries.
type Filter struct {
	// Identity filters
	EventID      string // Exact match on event ID
	FireID       string // Exact match on fire ID
	Handler      string // Exact match on handler name
	SubscriberID string // Exact match on subscriber ID

	// Status filters
	Status   []Status // Filter by status (empty = all statuses)
	HasError *bool    // Filter by error presence (nil = ignore, true = has error, false = no error)

	// Time filters
	StartTime time.Time // Entries started after this time (inclusive)
	EndTime   time.Time // Entries started before this time (exclusive)

	// Performance filters
	MinDuration time.Duration // Entries with duration >= this value

	// Cursor-based pagination
	Cursor    string // Opaque cursor from previous page (empty for first page)
	Limit     int    // Max results per page (0 = default limit)
	OrderDesc bool   // Order by started_at descending (default: ascending)
}

// Page represents a page of monitor entries with cursor-based pagination.
type Page struct {
	// Entries contains the monitor entries for this page.
	Entries []*Entry `json:"entries"`

	// NextCursor is the opaque cursor for the next page.
	// Empty if there are no more pages.
	NextCursor string `json:"next_cursor,omitempty"`

	// HasMore indicates whether there are more pages available.
	HasMore bool `json:"has_more"`
}

// DefaultLimit is the default page size when Limit is 0.
const DefaultLimit = 100

// MaxLimit is the maximum allowed page size.
const MaxLimit = 1000

// EffectiveLimit returns the effective limit, applying defaults and bounds.
func (f *Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	if f.Limit > MaxLimit {
		return MaxLimit
	}
	return f.Limit
}

// Matches reports whether entry satisfies every criterion of the filter.
// Cursor and limit are ignored.
func (f *Filter) Matches(entry *Entry) bool {
	if f.EventID != "" && entry.EventID != f.EventID {
		return false
	}
	if f.FireID != "" && entry.FireID != f.FireID {
		return false
	}
	if f.Handler != "" && entry.Handler != f.Handler {
		return false
	}
	if f.SubscriberID != "" && entry.SubscriberID != f.SubscriberID {
		return false
	}
	if len(f.Status) > 0 {
		found := false
		for _, s := range f.Status {
			if entry.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.HasError != nil && *f.HasError != entry.HasError() {
		return false
	}
	if !f.StartTime.IsZero() && entry.StartedAt.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && !entry.StartedAt.Before(f.EndTime) {
		return false
	}
	if f.MinDuration > 0 && entry.Duration < f.MinDuration {
		return false
	}
	return true
}
