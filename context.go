package event

import (
	"context"
)

const (
	eventContextKey contextKey = iota
)

// contextKey
type contextKey int

// eventContextData is attached to the context handed to each handler.
type eventContextData struct {
	eventID        string
	fireID         string
	registrationID string
	handler        string
	subscriberID   SubscriberID
	manager        *Manager
}

func contextData(ctx context.Context) *eventContextData {
	s, _ := ctx.Value(eventContextKey).(*eventContextData)
	return s
}

// ContextEventID returns the id of the event being handled.
func ContextEventID(ctx context.Context) string {
	if s := contextData(ctx); s != nil {
		return s.eventID
	}
	return ""
}

// ContextFireID returns the id of the fire call being handled. All handlers
// invoked by one Fire see the same value.
func ContextFireID(ctx context.Context) string {
	if s := contextData(ctx); s != nil {
		return s.fireID
	}
	return ""
}

// ContextRegistrationID returns the id of the running handler's registration.
func ContextRegistrationID(ctx context.Context) string {
	if s := contextData(ctx); s != nil {
		return s.registrationID
	}
	return ""
}

// ContextHandler returns the name of the running handler.
func ContextHandler(ctx context.Context) string {
	if s := contextData(ctx); s != nil {
		return s.handler
	}
	return ""
}

// ContextSubscriberID returns the subscriber owning the running handler, or
// "" for handlers registered with Register.
func ContextSubscriberID(ctx context.Context) SubscriberID {
	if s := contextData(ctx); s != nil {
		return s.subscriberID
	}
	return ""
}

// ContextManager returns the manager dispatching the event, so a handler
// can fire follow-up events.
func ContextManager(ctx context.Context) *Manager {
	if s := contextData(ctx); s != nil {
		return s.manager
	}
	return nil
}

func contextWithInfo(ctx context.Context, m *Manager, eventID, fireID string, reg *registration) context.Context {
	return context.WithValue(ctx, eventContextKey, &eventContextData{
		eventID:        eventID,
		fireID:         fireID,
		registrationID: reg.id,
		handler:        reg.name,
		subscriberID:   reg.subscriber,
		manager:        m,
	})
}
