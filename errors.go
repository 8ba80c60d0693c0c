package event

import (
	"errors"
	"fmt"
)

// Manager errors
var (
	// ErrNotInitialized is returned by Fire, Register and Subscribe when the
	// manager has not been initialized or has been shut down.
	ErrNotInitialized = errors.New("event manager is not initialized")

	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("handler is nil")

	// ErrNilSubscriber is returned when subscribing a nil subscriber.
	ErrNilSubscriber = errors.New("subscriber is nil")

	// ErrNilEvent is returned when firing a nil event.
	ErrNilEvent = errors.New("event is nil")

	// ErrInvalidEventType is returned when a handler is declared for a type
	// that can never be the dynamic type of a fired event.
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrInvalidLevel is returned by ParseLevel for unrecognized names.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrSubscriberNotFound is returned by Unsubscribe for unknown ids.
	ErrSubscriberNotFound = errors.New("subscriber not found")

	// ErrRegistrationNotFound is returned by Unregister for unknown ids.
	ErrRegistrationNotFound = errors.New("registration not found")
)

// UnknownLevelError indicates a level outside the declared enumeration.
// Firing an event whose FiringLevel produces this error is a programming
// error: the fire fails and no handler runs.
type UnknownLevelError struct {
	Level   Level
	EventID string
}

func (e *UnknownLevelError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("event %q: unknown level %d", e.EventID, int(e.Level))
	}
	return fmt.Sprintf("unknown level %d", int(e.Level))
}

// IsUnknownLevel checks if an error indicates an unmapped level.
func IsUnknownLevel(err error) bool {
	var levelErr *UnknownLevelError
	return errors.As(err, &levelErr)
}

// HandlerError describes a handler that failed during a fire, either by
// returning an error or by panicking. It is logged by the manager and never
// returned to the producer.
type HandlerError struct {
	EventID      string
	FireID       string
	Handler      string
	SubscriberID SubscriberID
	Err          error
	Panic        any
	Stack        []byte
}

func (e *HandlerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("handler %s panicked on %s: %v", e.Handler, e.EventID, e.Panic)
	}
	return fmt.Sprintf("handler %s failed on %s: %v", e.Handler, e.EventID, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Panicked reports whether the handler panicked rather than returning an
// error.
func (e *HandlerError) Panicked() bool {
	return e.Panic != nil
}

// IsHandlerError checks if an error is a handler failure.
func IsHandlerError(err error) bool {
	var handlerErr *HandlerError
	return errors.As(err, &handlerErr)
}

// notInitialized wraps ErrNotInitialized with the rejected operation.
func notInitialized(op string) error {
	return fmt.Errorf("%w: %s", ErrNotInitialized, op)
}
