package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TestManager creates an initialized manager configured for testing.
// Has tracing/metrics disabled and records everything it logs into the
// returned sink. Panics if Init fails (test setup error).
//
// Example:
//
//	m, sink := event.TestManager()
//	defer m.Shutdown(ctx)
func TestManager(opts ...Option) (*Manager, *RecordingSink) {
	sink := NewRecordingSink()
	all := append([]Option{
		WithName("test-manager"),
		WithSink(sink),
		WithTracing(false),
		WithMetrics(false),
	}, opts...)
	m := New(all...)
	if err := m.Init(context.Background()); err != nil {
		panic("event.TestManager: " + err.Error())
	}
	return m, sink
}

// Record is one entry captured by a RecordingSink.
type Record struct {
	Level     Level
	Message   string
	Attrs     map[string]any
	Timestamp time.Time
}

// Attr returns the value of an attribute as a string, or "".
func (r Record) Attr(key string) string {
	v, ok := r.Attrs[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RecordingSink is a Sink that keeps every record in memory.
// Useful for asserting what the manager logged.
type RecordingSink struct {
	mu      sync.Mutex
	records []Record
	closed  int
}

// NewRecordingSink creates an empty recording sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Log implements Sink.
func (s *RecordingSink) Log(_ context.Context, level Level, msg string, args ...any) {
	attrs := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		attrs[key] = args[i+1]
	}
	if len(args)%2 == 1 {
		attrs["!BADKEY"] = args[len(args)-1]
	}

	s.mu.Lock()
	s.records = append(s.records, Record{
		Level:     level,
		Message:   msg,
		Attrs:     attrs,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()
}

// Close implements Sink.
func (s *RecordingSink) Close(context.Context) error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

// Records returns a copy of all records
func (s *RecordingSink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Record, len(s.records))
	copy(result, s.records)
	return result
}

// RecordsWith returns records with the given message.
func (s *RecordingSink) RecordsWith(msg string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []Record
	for _, r := range s.records {
		if r.Message == msg {
			result = append(result, r)
		}
	}
	return result
}

// RecordsAt returns records logged at the given level.
func (s *RecordingSink) RecordsAt(level Level) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []Record
	for _, r := range s.records {
		if r.Level == level {
			result = append(result, r)
		}
	}
	return result
}

// Count returns the number of records
func (s *RecordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Closed returns how many times Close was called.
func (s *RecordingSink) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Reset clears all records
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

// Compile-time check
var _ Sink = (*RecordingSink)(nil)

// HandlerCall is one invocation captured by a HandlerRecorder.
type HandlerCall struct {
	Name    string
	EventID string
	Event   Event
}

// HandlerRecorder records handler invocations in order, across event types.
// Useful for asserting dispatch order.
type HandlerRecorder struct {
	mu    sync.Mutex
	calls []HandlerCall
}

// Record appends a call.
func (r *HandlerRecorder) Record(name string, ev Event) {
	r.mu.Lock()
	r.calls = append(r.calls, HandlerCall{Name: name, EventID: IDOf(ev), Event: ev})
	r.mu.Unlock()
}

// Calls returns a copy of recorded calls
func (r *HandlerRecorder) Calls() []HandlerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]HandlerCall, len(r.calls))
	copy(result, r.calls)
	return result
}

// Names returns the names of the recorded calls in order.
func (r *HandlerRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.Name
	}
	return names
}

// Reset clears recorded calls
func (r *HandlerRecorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Recording returns a handler that records itself under name and returns err.
func Recording[E Event](r *HandlerRecorder, name string, err error) HandlerFunc[E] {
	return func(_ context.Context, ev E) error {
		r.Record(name, ev)
		return err
	}
}
