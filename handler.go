package event

import (
	"context"
	"fmt"
	"reflect"
	"weak"
)

// HandlerFunc handles fired events of the concrete type E.
// A returned error is logged by the manager and does not stop other
// handlers from running.
type HandlerFunc[E Event] func(ctx context.Context, ev E) error

// Binding declares that a method of the subscriber type S handles one
// concrete event type. Bindings are built with On and returned from a
// subscriber's Handlers method.
type Binding[S any] struct {
	eventType reflect.Type
	name      string
	invoke    func(ctx context.Context, sub *S, ev Event) error
	err       error
}

// EventType returns the name of the event type the binding handles.
func (b Binding[S]) EventType() string {
	if b.eventType == nil {
		return ""
	}
	return typeName(b.eventType)
}

// Name returns the handler name used in logs.
func (b Binding[S]) Name() string {
	return b.name
}

// On binds a method expression of S to the event type E:
//
//	func (h *HUD) Handlers() []event.Binding[HUD] {
//	    return []event.Binding[HUD]{
//	        event.On((*HUD).onGameLoaded),
//	        event.On((*HUD).onWindowResized),
//	    }
//	}
//
// Method expressions take the receiver as an argument, so the manager can
// hold the subscriber weakly and supply it only while it is alive. Binding a
// closure over the subscriber instead would keep it reachable forever.
func On[S any, E Event](fn func(*S, context.Context, E) error) Binding[S] {
	b := Binding[S]{name: funcName(fn)}
	if fn == nil {
		b.err = ErrNilHandler
		return b
	}
	b.eventType, b.err = typeOf[E]()
	b.invoke = func(ctx context.Context, sub *S, ev Event) error {
		return fn(sub, ctx, ev.(E))
	}
	return b
}

// Declarer is implemented by subscriber types that declare their handlers.
type Declarer[S any] interface {
	Handlers() []Binding[S]
}

// SubscriberID identifies a tracked subscriber.
type SubscriberID string

// Registration describes one registered handler.
type Registration struct {
	ID           string
	EventType    string
	Handler      string
	SubscriberID SubscriberID
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	name string
}

// WithHandlerName overrides the handler name used in logs. By default the
// name of the handler function is used.
func WithHandlerName(name string) RegisterOption {
	return func(o *registerOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// Register appends fn to the handlers of the concrete event type E.
// The handler is owned by the manager and stays registered until
// Unregister or Shutdown. Registering the same function twice makes it fire
// twice.
func Register[E Event](ctx context.Context, m *Manager, fn HandlerFunc[E], opts ...RegisterOption) (Registration, error) {
	if fn == nil {
		return Registration{}, ErrNilHandler
	}
	t, err := typeOf[E]()
	if err != nil {
		return Registration{}, err
	}
	o := &registerOptions{name: funcName(fn)}
	for _, opt := range opts {
		opt(o)
	}
	reg := &registration{
		id:        NewID(),
		name:      o.name,
		eventType: t,
		call: func(ctx context.Context, ev Event) (bool, error) {
			return true, fn(ctx, ev.(E))
		},
	}
	if err := m.add(ctx, reg); err != nil {
		return Registration{}, err
	}
	return reg.describe(), nil
}

// Subscribe tracks sub and wires every handler it declares. The manager
// holds sub weakly: once the subscriber's owner drops it and it is garbage
// collected, its handlers stop firing and the bookkeeping is purged on the
// next sweep. Unsubscribe removes it immediately.
func Subscribe[S any, P interface {
	*S
	Declarer[S]
}](ctx context.Context, m *Manager, sub P) (SubscriberID, error) {
	s := (*S)(sub)
	if s == nil {
		return "", ErrNilSubscriber
	}
	return SubscribeWith(ctx, m, s, sub.Handlers()...)
}

// SubscribeWith is Subscribe for subscribers whose handler table is built
// by the caller rather than declared on the type.
func SubscribeWith[S any](ctx context.Context, m *Manager, sub *S, bindings ...Binding[S]) (SubscriberID, error) {
	if sub == nil {
		return "", ErrNilSubscriber
	}
	name := typeName(reflect.TypeFor[S]())
	for _, b := range bindings {
		if b.err != nil {
			return "", fmt.Errorf("subscribe %s: handler %s: %w", name, b.name, b.err)
		}
	}

	ref := weak.Make(sub)
	alive := func() bool { return ref.Value() != nil }

	regs := make([]*registration, 0, len(bindings))
	for _, b := range bindings {
		invoke := b.invoke
		regs = append(regs, &registration{
			id:        NewID(),
			name:      b.name,
			eventType: b.eventType,
			alive:     alive,
			call: func(ctx context.Context, ev Event) (bool, error) {
				target := ref.Value()
				if target == nil {
					return false, nil
				}
				return true, invoke(ctx, target, ev)
			},
		})
	}
	return m.subscribe(ctx, name, alive, regs)
}

// HandlerCount returns the number of live handlers registered for E.
func HandlerCount[E Event](m *Manager) int {
	t, err := typeOf[E]()
	if err != nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.registry.handlersFor(t))
}
