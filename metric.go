package event

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the manager's OpenTelemetry instruments. A nil *metrics
// records nothing.
type metrics struct {
	fired     metric.Int64Counter
	handled   metric.Int64Counter
	failed    metric.Int64Counter
	swept     metric.Int64Counter
	throttled metric.Int64Counter
	duration  metric.Float64Histogram
}

func newMetrics(name string) *metrics {
	meter := otel.Meter(name)
	fired, _ := meter.Int64Counter("event.fired",
		metric.WithDescription("Total number of events fired"),
		metric.WithUnit("{event}"))
	handled, _ := meter.Int64Counter("event.handled",
		metric.WithDescription("Total number of handler invocations"),
		metric.WithUnit("{invocation}"))
	failed, _ := meter.Int64Counter("event.handler.errors",
		metric.WithDescription("Handler invocations that returned an error or panicked"),
		metric.WithUnit("{invocation}"))
	swept, _ := meter.Int64Counter("event.swept",
		metric.WithDescription("Collected subscribers purged by sweeps"),
		metric.WithUnit("{subscriber}"))
	throttled, _ := meter.Int64Counter("event.log.throttled",
		metric.WithDescription("Firing records dropped by the log limiter"),
		metric.WithUnit("{record}"))
	duration, _ := meter.Float64Histogram("event.dispatch.duration",
		metric.WithDescription("Time spent running all handlers of one fire"),
		metric.WithUnit("ms"))
	return &metrics{
		fired:     fired,
		handled:   handled,
		failed:    failed,
		swept:     swept,
		throttled: throttled,
		duration:  duration,
	}
}

func (m *metrics) recordFire(ctx context.Context, eventID string, handlers int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("event", eventID))
	if m.fired != nil {
		m.fired.Add(ctx, 1, attrs)
	}
	if m.handled != nil && handlers > 0 {
		m.handled.Add(ctx, int64(handlers), attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	}
}

func (m *metrics) recordFailure(ctx context.Context, eventID, handler string, panicked bool) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", eventID),
		attribute.String("handler", handler),
		attribute.Bool("panic", panicked)))
}

func (m *metrics) recordSweep(ctx context.Context, n int) {
	if m == nil || m.swept == nil || n == 0 {
		return
	}
	m.swept.Add(ctx, int64(n))
}

func (m *metrics) recordThrottled(ctx context.Context, eventID string) {
	if m == nil || m.throttled == nil {
		return
	}
	m.throttled.Add(ctx, 1, metric.WithAttributes(attribute.String("event", eventID)))
}
