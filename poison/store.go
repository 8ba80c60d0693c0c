// Package poison quarantines event handlers that keep failing.
//
// A Detector is an event.Observer. It counts consecutive failures per
// registration and, once a handler reaches the threshold, marks it
// quarantined for a while and optionally unregisters it from the manager.
// A successful invocation resets the count.
//
//	store := poison.NewMemoryStore()
//	detector := poison.NewDetector(store,
//	    poison.WithThreshold(5),
//	    poison.WithUnregister(m.Unregister),
//	)
//	m := event.New(event.WithObserver(detector))
//
// Quarantine state lives in a Store. MemoryStore is the only
// implementation; it is scoped to one process like the manager itself.
package poison

import (
	"context"
	"sync"
	"time"
)

// Store tracks failure counts and quarantine status keyed by registration
// id. Implementations must be safe for concurrent use.
type Store interface {
	// IncrementFailure increments the failure count and returns the new
	// count.
	IncrementFailure(ctx context.Context, key string) (int, error)

	// GetFailureCount returns the current failure count, 0 if none.
	GetFailureCount(ctx context.Context, key string) (int, error)

	// MarkPoison quarantines key for ttl.
	MarkPoison(ctx context.Context, key string, ttl time.Duration) error

	// IsPoison reports whether key is quarantined and the quarantine has
	// not expired.
	IsPoison(ctx context.Context, key string) (bool, error)

	// ClearPoison lifts the quarantine.
	ClearPoison(ctx context.Context, key string) error

	// ClearFailures resets the failure count.
	ClearFailures(ctx context.Context, key string) error
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu          sync.RWMutex
	now         func() time.Time
	failures    map[string]int
	quarantined map[string]time.Time // key -> expiry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		failures:    make(map[string]int),
		quarantined: make(map[string]time.Time),
	}
}

// IncrementFailure increments and returns the failure count for key.
func (s *MemoryStore) IncrementFailure(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[key]++
	return s.failures[key], nil
}

// GetFailureCount returns the failure count for key.
func (s *MemoryStore) GetFailureCount(_ context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.failures[key], nil
}

// MarkPoison quarantines key until ttl elapses.
func (s *MemoryStore) MarkPoison(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quarantined[key] = s.now().Add(ttl)
	return nil
}

// IsPoison reports whether key is quarantined.
func (s *MemoryStore) IsPoison(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.quarantined[key]
	if !ok {
		return false, nil
	}
	return s.now().Before(expiry), nil
}

// ClearPoison lifts the quarantine on key.
func (s *MemoryStore) ClearPoison(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.quarantined, key)
	return nil
}

// ClearFailures resets the failure count for key.
func (s *MemoryStore) ClearFailures(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.failures, key)
	return nil
}

// Cleanup drops expired quarantine entries and returns how many were
// removed. IsPoison already ignores them; this only frees memory.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for key, expiry := range s.quarantined {
		if !now.Before(expiry) {
			delete(s.quarantined, key)
			n++
		}
	}
	return n
}

var _ Store = (*MemoryStore)(nil)
