package event

import (
	"context"
	"errors"
	"log/slog"
)

// Sink receives the records the manager emits: one per fired event with a
// firing level, one per failed handler, and lifecycle messages. Formatting
// and output are the sink's concern.
//
// Log must not be called before the owning manager's Init has completed.
type Sink interface {
	// Log emits a record. args are alternating keys and values, as with
	// slog.Logger.Log.
	Log(ctx context.Context, level Level, msg string, args ...any)

	// Close flushes buffered records. The manager calls it on Shutdown and
	// may keep using the sink after a later Init.
	Close(ctx context.Context) error
}

// SlogSink adapts a slog logger to Sink.
type SlogSink struct {
	logger  *slog.Logger
	closers []func(context.Context) error
}

// NewSlogSink creates a sink writing to l. closers run in order on Close,
// typically flushing the writer behind l's handler.
func NewSlogSink(l *slog.Logger, closers ...func(context.Context) error) *SlogSink {
	if l == nil {
		l = slog.Default()
	}
	return &SlogSink{logger: l, closers: closers}
}

// Logger returns the underlying logger.
func (s *SlogSink) Logger() *slog.Logger {
	return s.logger
}

// Log implements Sink. Levels without a slog mapping are written at error
// level with the mapping error attached.
func (s *SlogSink) Log(ctx context.Context, level Level, msg string, args ...any) {
	sl, err := level.SlogLevel()
	if err != nil {
		sl = slog.LevelError
		args = append(args, "level_error", err.Error())
	}
	s.logger.Log(ctx, sl, msg, args...)
}

// Close implements Sink.
func (s *SlogSink) Close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time check
var _ Sink = (*SlogSink)(nil)
