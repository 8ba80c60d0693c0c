package monitor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using bounded in-memory storage.
//
// Example:
//
//	store := monitor.NewMemoryStore()
//	defer store.Close()
//
//	m := event.New(event.WithObserver(monitor.NewRecorder(store)))
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*Entry // key: fireID:registrationID
	order    []string          // keys in insertion order, oldest first
	capacity int
	evicted  int64
	closed   bool
}

// NewMemoryStore creates a new in-memory monitor store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &MemoryStore{
		entries:  make(map[string]*Entry),
		capacity: o.capacity,
	}
}

// Record creates or replaces a monitor entry, evicting the oldest entries
// once the store is full.
func (s *MemoryStore) Record(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	key := entry.Key()
	// Create a copy to avoid mutation
	entryCopy := *entry
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = &entryCopy

	for len(s.entries) > s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		if _, ok := s.entries[oldest]; ok {
			delete(s.entries, oldest)
			s.evicted++
		}
	}
	return nil
}

// Get retrieves a monitor entry by its composite key.
func (s *MemoryStore) Get(ctx context.Context, fireID, registrationID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if entry, ok := s.entries[makeKey(fireID, registrationID)]; ok {
		entryCopy := *entry
		return &entryCopy, nil
	}
	return nil, nil
}

// GetByFireID returns all entries for a fire.
func (s *MemoryStore) GetByFireID(ctx context.Context, fireID string) ([]*Entry, error) {
	return s.collect(Filter{FireID: fireID}, false)
}

// collect returns copies of the matching entries sorted by start time,
// ties broken by key.
func (s *MemoryStore) collect(filter Filter, desc bool) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var matches []*Entry
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			entryCopy := *entry
			matches = append(matches, &entryCopy)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			if desc {
				return a.StartedAt.After(b.StartedAt)
			}
			return a.StartedAt.Before(b.StartedAt)
		}
		if desc {
			return a.Key() > b.Key()
		}
		return a.Key() < b.Key()
	})
	return matches, nil
}

// cursor represents the pagination cursor state.
type cursor struct {
	StartedAt time.Time `json:"s"`
	Key       string    `json:"k"`
}

// encodeCursor encodes a cursor to a string.
func encodeCursor(c cursor) string {
	data, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(data)
}

// decodeCursor decodes a cursor from a string.
func decodeCursor(s string) (cursor, error) {
	var c cursor
	if s == "" {
		return c, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return c, err
	}
	err = json.Unmarshal(data, &c)
	return c, err
}

// after reports whether e sorts strictly after the cursor position.
func (c cursor) after(e *Entry, desc bool) bool {
	if !e.StartedAt.Equal(c.StartedAt) {
		if desc {
			return e.StartedAt.Before(c.StartedAt)
		}
		return e.StartedAt.After(c.StartedAt)
	}
	if desc {
		return e.Key() < c.Key
	}
	return e.Key() > c.Key
}

// List returns a page of entries matching the filter.
func (s *MemoryStore) List(ctx context.Context, filter Filter) (*Page, error) {
	var cur cursor
	if filter.Cursor != "" {
		var err error
		if cur, err = decodeCursor(filter.Cursor); err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
	}

	matches, err := s.collect(filter, filter.OrderDesc)
	if err != nil {
		return nil, err
	}

	// Apply cursor
	if filter.Cursor != "" {
		idx := len(matches)
		for i, entry := range matches {
			if cur.after(entry, filter.OrderDesc) {
				idx = i
				break
			}
		}
		matches = matches[idx:]
	}

	// Apply limit
	limit := filter.EffectiveLimit()
	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}

	// Create next cursor
	var nextCursor string
	if hasMore && len(matches) > 0 {
		last := matches[len(matches)-1]
		nextCursor = encodeCursor(cursor{StartedAt: last.StartedAt, Key: last.Key()})
	}

	return &Page{
		Entries:    matches,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// Count returns the number of entries matching the filter.
func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var count int64
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			count++
		}
	}
	return count, nil
}

// DeleteOlderThan removes entries older than the specified age.
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	cutoff := time.Now().Add(-age)
	var deleted int64
	kept := s.order[:0]
	for _, key := range s.order {
		entry, ok := s.entries[key]
		if !ok {
			continue
		}
		if entry.StartedAt.Before(cutoff) {
			delete(s.entries, key)
			deleted++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return deleted, nil
}

// Close closes the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.entries = nil
	s.order = nil
	return nil
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Evicted returns how many entries were dropped to stay within capacity.
func (s *MemoryStore) Evicted() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
