// Package host wires the logging pipeline, the event manager and the
// dispatch monitor together and exposes the two hooks the engine calls:
// OnStartup and OnShutdown.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/stridesaber/event"
	"github.com/stridesaber/event/config"
	"github.com/stridesaber/event/events"
	"github.com/stridesaber/event/logging"
	"github.com/stridesaber/event/monitor"
	"github.com/stridesaber/event/poison"
	"github.com/stridesaber/event/ratelimit"
)

// Host owns the process-wide services of a running game.
type Host struct {
	cfg      config.Config
	pipeline *logging.Pipeline
	manager  *event.Manager
	bridge   *logging.Bridge
	store    *monitor.MemoryStore
	detector *poison.Detector
	limiter  *ratelimit.Keyed

	// lifecycle serializes OnStartup and OnShutdown.
	lifecycle sync.Mutex

	mu      sync.Mutex
	started bool
	frame   uint64
	last    time.Time
}

// New creates a host logging to out. Extra manager options are applied
// after the ones derived from cfg.
func New(cfg config.Config, out io.Writer, opts ...event.Option) *Host {
	h := &Host{
		cfg:      cfg,
		pipeline: logging.NewPipeline(out, cfg.Logging()),
		limiter:  cfg.LogLimiter(),
	}
	h.bridge = logging.NewBridge(h.pipeline.Deferred())

	var observers []event.Observer
	if cfg.MonitorCapacity > 0 {
		h.store = monitor.NewMemoryStore(monitor.WithCapacity(cfg.MonitorCapacity))
		observers = append(observers, monitor.NewRecorder(h.store,
			monitor.WithLogger(h.pipeline.Deferred().With("component", "event>monitor"))))
	}
	if cfg.PoisonThreshold > 0 {
		h.detector = poison.NewDetector(poison.NewMemoryStore(),
			poison.WithThreshold(cfg.PoisonThreshold),
			poison.WithQuarantineTime(cfg.PoisonQuarantine),
			poison.WithLogger(h.pipeline.Deferred().With("component", "event>poison")),
			poison.WithUnregister(func(ctx context.Context, reg event.Registration) error {
				return h.manager.Unregister(ctx, reg)
			}))
		observers = append(observers, h.detector)
	}

	all := append(cfg.ManagerOptions(),
		event.WithSink(h.pipeline.Sink("event>"+cfg.GameName)),
		event.WithLogLimiter(h.limiter))
	if len(observers) > 0 {
		all = append(all, event.WithObserver(event.Observers(observers...)))
	}
	h.manager = event.New(append(all, opts...)...)
	return h
}

// Manager returns the event manager. Pass it to every producer and
// subscriber.
func (h *Host) Manager() *event.Manager {
	return h.manager
}

// Monitor returns the dispatch monitor store, or nil when monitoring is
// disabled.
func (h *Host) Monitor() monitor.Store {
	if h.store == nil {
		return nil
	}
	return h.store
}

// Poison returns the handler quarantine detector, or nil when quarantine
// is disabled.
func (h *Host) Poison() *poison.Detector {
	return h.detector
}

// SetLogRate retunes the firing record limit while the game runs. A
// non-positive rps lifts the limit.
func (h *Host) SetLogRate(rps float64, burst int) {
	h.limiter.SetLimit(rps, burst)
}

// Pipeline returns the logging pipeline.
func (h *Host) Pipeline() *logging.Pipeline {
	return h.pipeline
}

// EngineLog forwards an engine log message to the pipeline. Messages
// logged outside OnStartup and OnShutdown are discarded.
func (h *Host) EngineLog(ctx context.Context, msg logging.Message) error {
	return h.bridge.Log(ctx, msg)
}

// OnStartup initializes logging and the event manager, then fires
// GameLoaded. Calling it again does nothing.
func (h *Host) OnStartup(ctx context.Context) error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if h.Started() {
		return nil
	}
	if err := h.pipeline.Init(ctx); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := h.manager.Init(ctx); err != nil {
		err = fmt.Errorf("init event manager: %w", err)
		if serr := h.pipeline.Shutdown(ctx); serr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown logging: %w", serr))
		}
		return err
	}

	h.mu.Lock()
	h.started = true
	h.frame = 0
	h.last = time.Time{}
	h.mu.Unlock()

	if err := h.manager.Fire(ctx, events.NewGameLoaded(h.cfg.GameName)); err != nil {
		return fmt.Errorf("fire game loaded: %w", err)
	}
	return nil
}

// Start fires GameStarted with the initial window size.
func (h *Host) Start(ctx context.Context, width, height int) error {
	return h.manager.Fire(ctx, events.NewGameStarted(h.cfg.GameName, width, height))
}

// Resize fires WindowResized.
func (h *Host) Resize(ctx context.Context, width, height int) error {
	return h.manager.Fire(ctx, events.WindowResized{Width: width, Height: height})
}

// Frame fires FrameUpdated with the next frame number and the time since
// the previous frame.
func (h *Host) Frame(ctx context.Context, now time.Time) error {
	h.mu.Lock()
	h.frame++
	ev := events.FrameUpdated{Frame: h.frame}
	if !h.last.IsZero() {
		ev.Delta = now.Sub(h.last)
	}
	h.last = now
	h.mu.Unlock()
	return h.manager.Fire(ctx, ev)
}

// OnShutdown fires GameStopping, shuts the event manager down and flushes
// logging. Calling it again, or before OnStartup, does nothing.
func (h *Host) OnShutdown(ctx context.Context, reason string) error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if !h.Started() {
		return nil // Nothing to shut down
	}

	var errs []error
	if err := h.manager.Fire(ctx, events.NewGameStopping(reason)); err != nil {
		errs = append(errs, fmt.Errorf("fire game stopping: %w", err))
	}
	if err := h.manager.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown event manager: %w", err))
	}
	h.mu.Lock()
	h.started = false
	h.mu.Unlock()
	if err := h.pipeline.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown logging: %w", err))
	}
	return errors.Join(errs...)
}

// Started reports whether OnStartup has run without a later OnShutdown.
func (h *Host) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}
