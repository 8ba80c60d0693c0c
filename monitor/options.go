package monitor

import (
	"log/slog"
)

// DefaultCapacity is the default number of entries a MemoryStore keeps.
const DefaultCapacity = 1024

// storeOptions holds configuration for monitor stores.
type storeOptions struct {
	capacity int
}

// defaultStoreOptions returns the default store options.
func defaultStoreOptions() *storeOptions {
	return &storeOptions{
		capacity: DefaultCapacity,
	}
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithCapacity bounds the number of entries kept. Once full, recording a
// new entry evicts the oldest one.
//
// Default is 1024. Zero or negative values keep the default.
//
// Example:
//
//	store := monitor.NewMemoryStore(monitor.WithCapacity(10_000))
func WithCapacity(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// recorderOptions holds configuration for a Recorder.
type recorderOptions struct {
	samplingRate float64
	failuresOnly bool
	logger       *slog.Logger
}

func defaultRecorderOptions() *recorderOptions {
	return &recorderOptions{
		samplingRate: 1.0, // 100% - record all invocations
		logger:       slog.Default().With("component", "event>monitor"),
	}
}

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderOptions)

// WithSampling enables probabilistic sampling of successful invocations.
// Failed and panicked invocations are always recorded.
//
// Rate must be between 0.0 and 1.0:
//   - 1.0: Record all invocations (default)
//   - 0.1: Record 10% of successful invocations
//
// Example:
//
//	rec := monitor.NewRecorder(store, monitor.WithSampling(0.1))
func WithSampling(rate float64) RecorderOption {
	return func(o *recorderOptions) {
		if rate >= 0 && rate <= 1.0 {
			o.samplingRate = rate
		}
	}
}

// WithFailuresOnly records only failed and panicked invocations.
func WithFailuresOnly() RecorderOption {
	return func(o *recorderOptions) {
		o.failuresOnly = true
	}
}

// WithLogger sets the logger used to report store errors.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(o *recorderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
