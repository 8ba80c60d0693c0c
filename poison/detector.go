package poison

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/stridesaber/event"
)

// UnregisterFunc removes a registration from its manager. (*event.Manager).Unregister
// has this signature.
type UnregisterFunc func(ctx context.Context, reg event.Registration) error

// Detector counts handler failures and quarantines handlers that fail too
// often in a row.
type Detector struct {
	store          Store
	threshold      int
	quarantineTime time.Duration
	unregister     UnregisterFunc
	logger         *slog.Logger

	quarantines atomic.Int64
	storeErrors atomic.Int64
}

// Options configures a Detector.
type Options struct {
	// Threshold is the number of consecutive failures before a handler is
	// quarantined.
	// Default: 5
	Threshold int

	// QuarantineTime is how long a handler stays quarantined.
	// Default: 1 hour
	QuarantineTime time.Duration

	// Unregister, when set, is called once a handler is quarantined.
	Unregister UnregisterFunc

	// Logger reports quarantines and store errors.
	Logger *slog.Logger
}

// DefaultOptions returns the default detector options.
func DefaultOptions() *Options {
	return &Options{
		Threshold:      5,
		QuarantineTime: time.Hour,
		Logger:         slog.Default().With("component", "event>poison"),
	}
}

// Option modifies Options.
type Option func(*Options)

// WithThreshold sets the consecutive failures required before quarantine.
// Non-positive values keep the default.
func WithThreshold(threshold int) Option {
	return func(o *Options) {
		if threshold > 0 {
			o.Threshold = threshold
		}
	}
}

// WithQuarantineTime sets how long a handler stays quarantined.
func WithQuarantineTime(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.QuarantineTime = d
		}
	}
}

// WithUnregister removes quarantined handlers from the manager.
//
// Example:
//
//	detector := poison.NewDetector(store, poison.WithUnregister(m.Unregister))
func WithUnregister(fn UnregisterFunc) Option {
	return func(o *Options) {
		o.Unregister = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// NewDetector creates a detector backed by store.
func NewDetector(store Store, opts ...Option) *Detector {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Detector{
		store:          store,
		threshold:      o.Threshold,
		quarantineTime: o.QuarantineTime,
		unregister:     o.Unregister,
		logger:         o.Logger,
	}
}

// ObserveInvocation implements event.Observer.
func (d *Detector) ObserveInvocation(ctx context.Context, inv event.Invocation) {
	if inv.Err == nil {
		if err := d.RecordSuccess(ctx, inv.RegistrationID); err != nil {
			d.storeError(err, inv)
		}
		return
	}

	if poisoned, err := d.Check(ctx, inv.RegistrationID); err != nil {
		d.storeError(err, inv)
		return
	} else if poisoned {
		return
	}

	quarantined, err := d.RecordFailure(ctx, inv.RegistrationID)
	if err != nil {
		d.storeError(err, inv)
	}
	if !quarantined {
		return
	}

	d.quarantines.Add(1)
	d.logger.Warn("handler quarantined",
		"handler", inv.Handler,
		"registration_id", inv.RegistrationID,
		"event_id", inv.EventID,
		"threshold", d.threshold,
		"quarantine", d.quarantineTime)

	if d.unregister == nil {
		return
	}
	reg := event.Registration{
		ID:           inv.RegistrationID,
		EventType:    inv.EventID,
		Handler:      inv.Handler,
		SubscriberID: inv.SubscriberID,
	}
	if err := d.unregister(ctx, reg); err != nil {
		d.logger.Warn("unregister quarantined handler failed",
			"handler", inv.Handler,
			"registration_id", inv.RegistrationID,
			"error", err)
	}
}

func (d *Detector) storeError(err error, inv event.Invocation) {
	d.storeErrors.Add(1)
	d.logger.Warn("poison store failed", "error", err, "handler", inv.Handler, "registration_id", inv.RegistrationID)
}

// Check reports whether the registration is quarantined.
func (d *Detector) Check(ctx context.Context, registrationID string) (bool, error) {
	return d.store.IsPoison(ctx, registrationID)
}

// RecordFailure increments the failure count and reports whether the
// registration reached the threshold and was quarantined.
func (d *Detector) RecordFailure(ctx context.Context, registrationID string) (bool, error) {
	count, err := d.store.IncrementFailure(ctx, registrationID)
	if err != nil {
		return false, fmt.Errorf("increment failure: %w", err)
	}
	if count < d.threshold {
		return false, nil
	}
	if err := d.store.MarkPoison(ctx, registrationID, d.quarantineTime); err != nil {
		return true, fmt.Errorf("mark poison: %w", err)
	}
	return true, nil
}

// RecordSuccess resets the failure count.
func (d *Detector) RecordSuccess(ctx context.Context, registrationID string) error {
	return d.store.ClearFailures(ctx, registrationID)
}

// Release lifts the quarantine and resets the failure count.
func (d *Detector) Release(ctx context.Context, registrationID string) error {
	if err := d.store.ClearPoison(ctx, registrationID); err != nil {
		return err
	}
	return d.store.ClearFailures(ctx, registrationID)
}

// FailureCount returns the current consecutive failure count.
func (d *Detector) FailureCount(ctx context.Context, registrationID string) (int, error) {
	return d.store.GetFailureCount(ctx, registrationID)
}

// Threshold returns the configured failure threshold.
func (d *Detector) Threshold() int {
	return d.threshold
}

// QuarantineTime returns the configured quarantine duration.
func (d *Detector) QuarantineTime() time.Duration {
	return d.quarantineTime
}

// Quarantines returns how many handlers have been quarantined.
func (d *Detector) Quarantines() int64 {
	return d.quarantines.Load()
}

// StoreErrors returns how many store operations failed.
func (d *Detector) StoreErrors() int64 {
	return d.storeErrors.Load()
}
