package event

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stridesaber/event/ratelimit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	// StateUninitialized rejects Fire, Register and Subscribe.
	StateUninitialized State = iota
	// StateReady dispatches events.
	StateReady
	// StateShuttingDown is held while Shutdown runs.
	StateShuttingDown
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Invocation describes one completed handler call.
type Invocation struct {
	FireID         string
	EventID        string
	RegistrationID string
	Handler        string
	SubscriberID   SubscriberID
	StartedAt      time.Time
	Duration       time.Duration

	// Err is nil when the handler succeeded.
	Err *HandlerError
}

// Observer is notified after every handler invocation, on the firing
// goroutine. Implementations must be safe for concurrent use and must not
// block.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, inv Invocation)

// ObserveInvocation calls f.
func (f ObserverFunc) ObserveInvocation(ctx context.Context, inv Invocation) {
	f(ctx, inv)
}

// Observers fans an invocation out to every non-nil observer, in order.
func Observers(obs ...Observer) Observer {
	var list multiObserver
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) ObserveInvocation(ctx context.Context, inv Invocation) {
	for _, o := range m {
		o.ObserveInvocation(ctx, inv)
	}
}

// Stats contains manager statistics.
type Stats struct {
	// Fired is the number of successful Fire calls.
	Fired uint64

	// Handled is the number of handler invocations.
	Handled uint64

	// Skipped is the number of handlers skipped because their subscriber
	// was collected between snapshot and invocation.
	Skipped uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// Swept is the number of collected subscribers purged.
	Swept uint64

	// LogRecords is the number of firing records emitted.
	LogRecords uint64

	// LogThrottled is the number of firing records dropped by the limiter.
	LogThrottled uint64

	// Subscribers is the current number of tracked subscribers.
	Subscribers int

	// Registrations is the current number of registrations.
	Registrations int

	// EventTypes is the current number of event types with handlers.
	EventTypes int
}

// Manager dispatches events to the handlers registered for their concrete
// type. It is created once by the host and passed to every producer and
// subscriber.
//
// A Manager starts uninitialized: Init makes it ready and Shutdown returns
// it to uninitialized, dropping every registration. Fire runs handlers
// synchronously on the caller's goroutine in registration order; a handler
// that never returns blocks the caller.
type Manager struct {
	state atomic.Int32
	id    string
	name  string

	// lifecycle serializes Init and Shutdown.
	lifecycle sync.Mutex

	// mu guards registry and tracker. It is never held while a handler runs.
	mu       sync.Mutex
	registry *registry
	tracker  *tracker

	sink            Sink
	observer        Observer
	logLimiter      *ratelimit.Keyed
	tracingEnabled  bool
	recoveryEnabled bool
	metrics         *metrics
	sweepInterval   time.Duration
	stopSweep       chan struct{}
	sweepDone       chan struct{}

	fired         atomic.Uint64
	handled       atomic.Uint64
	skipped       atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
	swept         atomic.Uint64
	logRecords    atomic.Uint64
	logThrottled  atomic.Uint64
}

// New creates an uninitialized manager.
func New(opts ...Option) *Manager {
	o := newOptions(opts...)
	m := &Manager{
		id:              NewID(),
		name:            o.name,
		registry:        newRegistry(),
		tracker:         newTracker(),
		sink:            o.sink,
		observer:        o.observer,
		logLimiter:      o.logLimiter,
		tracingEnabled:  o.tracingEnabled,
		recoveryEnabled: o.recoveryEnabled,
		sweepInterval:   o.sweepInterval,
	}
	if o.metricsEnabled {
		m.metrics = newMetrics(o.name)
	}
	return m
}

// ID returns the manager ID
func (m *Manager) ID() string {
	return m.id
}

// Name returns the manager name
func (m *Manager) Name() string {
	return m.name
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Running returns true if the manager is ready to dispatch.
func (m *Manager) Running() bool {
	return m.State() == StateReady
}

// Sink returns the manager's sink.
func (m *Manager) Sink() Sink {
	return m.sink
}

// Init makes the manager ready. Calling Init on a ready manager does
// nothing. Init is safe for concurrent use with itself and Shutdown.
func (m *Manager) Init(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.State() == StateReady {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.registry = newRegistry()
	m.tracker = newTracker()
	m.state.Store(int32(StateReady))
	m.mu.Unlock()

	if m.sweepInterval > 0 {
		m.stopSweep = make(chan struct{})
		m.sweepDone = make(chan struct{})
		go m.sweepLoop(m.sweepInterval, m.stopSweep, m.sweepDone)
	}

	m.sink.Log(ctx, LevelInformation, "event manager initialized", "manager", m.name, "manager_id", m.id)
	return nil
}

// Shutdown drops every registration and subscriber, closes the sink and
// returns the manager to the uninitialized state, from which Init may be
// called again. Calling Shutdown on a manager that is not ready does
// nothing.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if !m.state.CompareAndSwap(int32(StateReady), int32(StateShuttingDown)) {
		return nil
	}

	if m.stopSweep != nil {
		close(m.stopSweep)
		<-m.sweepDone
		m.stopSweep, m.sweepDone = nil, nil
	}

	m.mu.Lock()
	registrations, subscribers := m.registry.count(), m.tracker.len()
	m.registry.clear()
	m.tracker.clear()
	m.mu.Unlock()

	m.sink.Log(ctx, LevelInformation, "event manager shutting down",
		"manager", m.name,
		"registrations", registrations,
		"subscribers", subscribers,
		"fired", m.fired.Load())
	err := m.sink.Close(ctx)

	m.state.Store(int32(StateUninitialized))
	if err != nil {
		return fmt.Errorf("close sink: %w", err)
	}
	return nil
}

// Fire dispatches ev to every live handler registered for its concrete
// type, in registration order, and returns once all of them have returned.
//
// If the event declares a firing level, one record carrying the event id
// and description is logged first. Handler failures are logged and do not
// affect other handlers or the returned error, which is only non-nil when
// the manager is not ready (ErrNotInitialized) or the firing level is not a
// declared Level (*UnknownLevelError). In both cases no handler runs.
func (m *Manager) Fire(ctx context.Context, ev Event) error {
	if ev == nil {
		return ErrNilEvent
	}
	eventID := IDOf(ev)
	if !m.Running() {
		return notInitialized("fire " + eventID)
	}

	level := ev.FiringLevel()
	if level != LevelNone {
		if _, err := level.SlogLevel(); err != nil {
			return &UnknownLevelError{Level: level, EventID: eventID}
		}
	}

	fireID := NewID()
	start := time.Now()

	var span trace.Span
	if m.tracingEnabled {
		ctx, span = otel.Tracer(m.name).Start(ctx, eventID+".fire",
			trace.WithAttributes(
				attribute.String(spanKeyEventID, eventID),
				attribute.String(spanKeyFireID, fireID),
				attribute.String(spanKeyManager, m.name)),
			trace.WithSpanKind(trace.SpanKindInternal))
		defer span.End()
	}

	if level != LevelNone {
		m.logFiring(ctx, ev, eventID, level)
	}

	m.mu.Lock()
	m.sweepLocked(ctx)
	regs := m.registry.handlersFor(reflect.TypeOf(ev))
	m.mu.Unlock()

	failures := 0
	for _, reg := range regs {
		if !m.invoke(ctx, ev, eventID, fireID, reg) {
			failures++
		}
	}

	m.fired.Add(1)
	m.metrics.recordFire(ctx, eventID, len(regs), time.Since(start))
	if span != nil {
		span.SetAttributes(attribute.Int(spanKeyHandlers, len(regs)))
		if failures > 0 {
			span.SetStatus(codes.Error, fmt.Sprintf("%d handler(s) failed", failures))
		}
	}
	return nil
}

// logFiring emits the firing record unless the limiter drops it.
func (m *Manager) logFiring(ctx context.Context, ev Event, eventID string, level Level) {
	if m.logLimiter != nil && !m.logLimiter.Allow(ctx, eventID) {
		m.logThrottled.Add(1)
		m.metrics.recordThrottled(ctx, eventID)
		return
	}
	m.sink.Log(ctx, level, "firing event", "event_id", eventID, "description", ev.String())
	m.logRecords.Add(1)
}

// invoke runs one handler and reports whether it succeeded or was skipped.
func (m *Manager) invoke(ctx context.Context, ev Event, eventID, fireID string, reg *registration) bool {
	start := time.Now()
	hctx := contextWithInfo(ctx, m, eventID, fireID, reg)

	handled, herr := m.call(hctx, ev, reg)
	if !handled && herr == nil {
		m.skipped.Add(1)
		return true
	}
	m.handled.Add(1)

	inv := Invocation{
		FireID:         fireID,
		EventID:        eventID,
		RegistrationID: reg.id,
		Handler:        reg.name,
		SubscriberID:   reg.subscriber,
		StartedAt:      start,
		Duration:       time.Since(start),
	}

	if herr != nil {
		herr.EventID, herr.FireID = eventID, fireID
		inv.Err = herr
		if herr.Panicked() {
			m.handlerPanics.Add(1)
		} else {
			m.handlerErrors.Add(1)
		}
		m.metrics.recordFailure(ctx, eventID, reg.name, herr.Panicked())
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.RecordError(herr, trace.WithAttributes(attribute.String(spanKeyHandler, reg.name)))
		}
		args := []any{
			"event_id", eventID,
			"fire_id", fireID,
			"handler", reg.name,
			"error", herr,
		}
		if reg.subscriber != "" {
			args = append(args, "subscriber_id", string(reg.subscriber))
		}
		if herr.Panicked() {
			args = append(args, "stack", string(herr.Stack))
		}
		m.sink.Log(ctx, LevelError, "event handler failed", args...)
	}

	if m.observer != nil {
		m.observer.ObserveInvocation(hctx, inv)
	}
	return herr == nil
}

// call invokes the handler, converting an error or a recovered panic into a
// *HandlerError.
func (m *Manager) call(ctx context.Context, ev Event, reg *registration) (handled bool, herr *HandlerError) {
	if m.recoveryEnabled {
		defer func() {
			if r := recover(); r != nil {
				handled = true
				herr = &HandlerError{
					Handler:      reg.name,
					SubscriberID: reg.subscriber,
					Err:          fmt.Errorf("panic: %v", r),
					Panic:        r,
					Stack:        debug.Stack(),
				}
			}
		}()
	}
	ok, err := reg.call(ctx, ev)
	if err != nil {
		return ok, &HandlerError{
			Handler:      reg.name,
			SubscriberID: reg.subscriber,
			Err:          err,
		}
	}
	return ok, nil
}

// Sweep purges collected subscribers now and returns how many were removed.
// Fire sweeps on its own; Sweep is for hosts that want eager cleanup.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(ctx)
}

func (m *Manager) sweepLocked(ctx context.Context) int {
	dead := m.tracker.sweep()
	if len(dead) == 0 {
		return 0
	}
	for _, ref := range dead {
		m.registry.removeSubscriber(ref.id)
	}
	m.swept.Add(uint64(len(dead)))
	m.metrics.recordSweep(ctx, len(dead))
	return len(dead)
}

func (m *Manager) sweepLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := m.Sweep(context.Background()); n > 0 {
				m.sink.Log(context.Background(), LevelVerbose, "swept collected subscribers", "count", n)
			}
		}
	}
}

// add registers an owner-less handler.
func (m *Manager) add(ctx context.Context, reg *registration) error {
	m.mu.Lock()
	if !m.Running() {
		m.mu.Unlock()
		return notInitialized("register " + typeName(reg.eventType))
	}
	m.registry.add(reg)
	m.mu.Unlock()

	m.sink.Log(ctx, LevelDebug, "registered handler",
		"event_type", typeName(reg.eventType),
		"handler", reg.name,
		"registration_id", reg.id)
	return nil
}

// subscribe tracks a subscriber and adds its registrations atomically.
func (m *Manager) subscribe(ctx context.Context, name string, alive func() bool, regs []*registration) (SubscriberID, error) {
	m.mu.Lock()
	if !m.Running() {
		m.mu.Unlock()
		return "", notInitialized("subscribe " + name)
	}
	id := m.tracker.track(name, alive)
	for _, reg := range regs {
		reg.subscriber = id
		m.registry.add(reg)
	}
	m.mu.Unlock()

	m.sink.Log(ctx, LevelDebug, "subscribed",
		"subscriber", name,
		"subscriber_id", string(id),
		"handlers", len(regs))
	return id, nil
}

// Unregister removes a handler added with Register.
func (m *Manager) Unregister(ctx context.Context, reg Registration) error {
	m.mu.Lock()
	removed := m.registry.remove(reg.ID)
	m.mu.Unlock()

	if !removed {
		return fmt.Errorf("%w: %s", ErrRegistrationNotFound, reg.ID)
	}
	m.sink.Log(ctx, LevelDebug, "unregistered handler", "handler", reg.Handler, "registration_id", reg.ID)
	return nil
}

// Unsubscribe stops tracking a subscriber and removes its handlers
// immediately, without waiting for it to be collected.
func (m *Manager) Unsubscribe(ctx context.Context, id SubscriberID) error {
	m.mu.Lock()
	ref, ok := m.tracker.untrack(id)
	removed := 0
	if ok {
		removed = m.registry.removeSubscriber(id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSubscriberNotFound, id)
	}
	m.sink.Log(ctx, LevelDebug, "unsubscribed",
		"subscriber", ref.name,
		"subscriber_id", string(id),
		"handlers", removed)
	return nil
}

// Subscribers returns the number of tracked subscribers, including any that
// have been collected but not yet swept.
func (m *Manager) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.len()
}

// Stats returns manager statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	subscribers := m.tracker.len()
	registrations := m.registry.count()
	types := m.registry.types()
	m.mu.Unlock()

	return Stats{
		Fired:         m.fired.Load(),
		Handled:       m.handled.Load(),
		Skipped:       m.skipped.Load(),
		HandlerErrors: m.handlerErrors.Load(),
		HandlerPanics: m.handlerPanics.Load(),
		Swept:         m.swept.Load(),
		LogRecords:    m.logRecords.Load(),
		LogThrottled:  m.logThrottled.Load(),
		Subscribers:   subscribers,
		Registrations: registrations,
		EventTypes:    types,
	}
}
