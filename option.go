package event

import (
	"log/slog"
	"time"

	"github.com/stridesaber/event/ratelimit"
)

// DefaultManagerName is the default name for managers. It is used as the
// otel meter and tracer name and in log attributes.
var DefaultManagerName = "event-manager"

// options holds configuration for the manager (unexported)
type options struct {
	name            string
	sink            Sink
	tracingEnabled  bool
	metricsEnabled  bool
	recoveryEnabled bool
	sweepInterval   time.Duration
	logLimiter      *ratelimit.Keyed
	observer        Observer
}

// Option option function for manager configuration
type Option func(*options)

// WithName sets the manager name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSink sets the sink that receives firing records, handler failures and
// lifecycle messages. The sink is closed on Shutdown.
func WithSink(s Sink) Option {
	return func(o *options) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithLogger is WithSink over a slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.sink = NewSlogSink(l)
		}
	}
}

// WithTracing enables/disables an OpenTelemetry span per fire. Default is true.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables/disables OpenTelemetry metrics. Default is true.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithRecovery enables/disables recovering handler panics. Default is true.
// With recovery disabled a panicking handler unwinds through Fire and can
// take the host down, so it is only meant for tests and debuggers; host
// configuration never disables it.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recoveryEnabled = enabled
	}
}

// WithSweepInterval purges collected subscribers on a timer in addition to
// the sweep done before every fire. Zero disables the timer.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sweepInterval = d
		}
	}
}

// WithLogLimiter throttles firing records per event id. Records above the
// limit are dropped and counted in Stats.LogThrottled.
func WithLogLimiter(l *ratelimit.Keyed) Option {
	return func(o *options) {
		o.logLimiter = l
	}
}

// WithObserver sets an observer notified after every handler invocation.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		name:            DefaultManagerName,
		tracingEnabled:  true,
		metricsEnabled:  true,
		recoveryEnabled: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sink == nil {
		o.sink = NewSlogSink(slog.Default().With("component", "event>"+o.name))
	}
	return o
}
