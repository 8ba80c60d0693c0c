package event

import (
	"context"
	"reflect"
)

// registration is one handler bound to one concrete event type.
type registration struct {
	id         string
	name       string
	eventType  reflect.Type
	subscriber SubscriberID

	// alive is nil for handlers owned by the manager.
	alive func() bool

	// call reports false when the owning subscriber is gone and the handler
	// was skipped.
	call func(ctx context.Context, ev Event) (bool, error)
}

func (r *registration) live() bool {
	return r.alive == nil || r.alive()
}

func (r *registration) describe() Registration {
	return Registration{
		ID:           r.id,
		EventType:    typeName(r.eventType),
		Handler:      r.name,
		SubscriberID: r.subscriber,
	}
}

// registry indexes registrations by exact event type, preserving the order
// in which they were added. It is not safe for concurrent use; the manager
// guards it together with the tracker.
type registry struct {
	handlers map[reflect.Type][]*registration
	byID     map[string]*registration
}

func newRegistry() *registry {
	return &registry{
		handlers: make(map[reflect.Type][]*registration),
		byID:     make(map[string]*registration),
	}
}

// add appends reg to the list for its event type, creating the list on
// first use. No uniqueness is enforced.
func (r *registry) add(reg *registration) {
	r.handlers[reg.eventType] = append(r.handlers[reg.eventType], reg)
	r.byID[reg.id] = reg
}

// remove deletes a registration by id.
func (r *registry) remove(id string) bool {
	reg, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	r.drop(reg.eventType, func(x *registration) bool { return x.id == id })
	return true
}

// removeSubscriber deletes every registration owned by sub and returns how
// many were removed.
func (r *registry) removeSubscriber(sub SubscriberID) int {
	removed := 0
	for id, reg := range r.byID {
		if reg.subscriber != sub {
			continue
		}
		delete(r.byID, id)
		r.drop(reg.eventType, func(x *registration) bool { return x.id == id })
		removed++
	}
	return removed
}

// drop filters the list for t in place, keeping order.
func (r *registry) drop(t reflect.Type, match func(*registration) bool) {
	list := r.handlers[t]
	kept := list[:0]
	for _, reg := range list {
		if !match(reg) {
			kept = append(kept, reg)
		}
	}
	// Clear the tail so dropped registrations can be collected.
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	if len(kept) == 0 {
		delete(r.handlers, t)
		return
	}
	r.handlers[t] = kept
}

// handlersFor returns a snapshot of the live registrations for exactly t,
// in registration order. An unregistered type yields nil.
func (r *registry) handlersFor(t reflect.Type) []*registration {
	list := r.handlers[t]
	if len(list) == 0 {
		return nil
	}
	result := make([]*registration, 0, len(list))
	for _, reg := range list {
		if reg.live() {
			result = append(result, reg)
		}
	}
	return result
}

// count returns the number of registrations, live or not.
func (r *registry) count() int {
	return len(r.byID)
}

// types returns the number of event types with at least one registration.
func (r *registry) types() int {
	return len(r.handlers)
}

func (r *registry) clear() {
	r.handlers = make(map[reflect.Type][]*registration)
	r.byID = make(map[string]*registration)
}
