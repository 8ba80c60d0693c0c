package monitor

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/stridesaber/event"
	"go.opentelemetry.io/otel/trace"
)

// Recorder is an event.Observer that writes one entry per handler
// invocation to a Store.
//
// Example:
//
//	store := monitor.NewMemoryStore()
//	m := event.New(event.WithObserver(monitor.NewRecorder(store)))
type Recorder struct {
	store        Store
	samplingRate float64
	failuresOnly bool
	logger       *slog.Logger
	dropped      atomic.Int64
	storeErrors  atomic.Int64
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	o := defaultRecorderOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Recorder{
		store:        store,
		samplingRate: o.samplingRate,
		failuresOnly: o.failuresOnly,
		logger:       o.logger,
	}
}

// ObserveInvocation implements event.Observer. Store errors are logged and
// never reach the handler or the producer.
func (r *Recorder) ObserveInvocation(ctx context.Context, inv event.Invocation) {
	entry := EntryFrom(ctx, inv)
	if !entry.Failed() {
		if r.failuresOnly || (r.samplingRate < 1.0 && rand.Float64() >= r.samplingRate) {
			r.dropped.Add(1)
			return
		}
	}

	// Best effort - don't fail dispatch if monitor fails
	if err := r.store.Record(ctx, entry); err != nil {
		r.storeErrors.Add(1)
		r.logger.Warn("monitor record failed", "error", err, "event_id", inv.EventID, "handler", inv.Handler)
	}
}

// Dropped returns how many successful invocations were not recorded due to
// sampling.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// StoreErrors returns how many entries the store rejected.
func (r *Recorder) StoreErrors() int64 {
	return r.storeErrors.Load()
}

// EntryFrom builds an entry from an invocation, copying trace ids from the
// span in ctx if any.
func EntryFrom(ctx context.Context, inv event.Invocation) *Entry {
	entry := &Entry{
		FireID:         inv.FireID,
		RegistrationID: inv.RegistrationID,
		EventID:        inv.EventID,
		Handler:        inv.Handler,
		SubscriberID:   string(inv.SubscriberID),
		Status:         StatusCompleted,
		StartedAt:      inv.StartedAt,
		Duration:       inv.Duration,
	}
	if m := event.ContextManager(ctx); m != nil {
		entry.Manager = m.Name()
	}
	if inv.Err != nil {
		entry.Status = StatusFailed
		if inv.Err.Panicked() {
			entry.Status = StatusPanicked
		}
		entry.Error = inv.Err.Error()
	}

	// Extract trace context if available
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		entry.TraceID = span.SpanContext().TraceID().String()
		entry.SpanID = span.SpanContext().SpanID().String()
	}
	return entry
}

// Compile-time check
var _ event.Observer = (*Recorder)(nil)
