package event

import (
	"fmt"
	"reflect"
)

// Event is something that happened in the game host.
//
// Implementations are information carriers and should not do anything:
// all payload is captured when the event is constructed and is never
// mutated afterwards. String must be pure and remain valid after the
// subsystem that produced the event has gone away, because sinks may
// format it later.
type Event interface {
	fmt.Stringer

	// FiringLevel is the level at which the manager logs the event every
	// time it is fired. LevelNone suppresses the record, which is what
	// high-frequency events such as frame updates should return.
	FiringLevel() Level
}

// Identifier is implemented by events that want an id other than their
// type name.
type Identifier interface {
	ID() string
}

// IDOf returns the identifier of ev. Events implementing Identifier supply
// their own; otherwise the concrete type name is used, e.g. "GameLoaded"
// for both GameLoaded and *GameLoaded.
func IDOf(ev Event) string {
	if ev == nil {
		return ""
	}
	if idr, ok := ev.(Identifier); ok {
		if id := idr.ID(); id != "" {
			return id
		}
	}
	return typeName(reflect.TypeOf(ev))
}

// typeName returns the bare name of t with pointer indirections removed.
func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// typeOf returns the dispatch key for E. Handlers are matched on the exact
// dynamic type of a fired event, so E must be a concrete type.
func typeOf[E Event]() (reflect.Type, error) {
	t := reflect.TypeFor[E]()
	if t.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w: %v is an interface", ErrInvalidEventType, t)
	}
	return t, nil
}
