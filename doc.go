// Package event provides synchronous, in-process, typed event dispatch for a
// game host.
//
// Producers construct an immutable Event and pass it to Manager.Fire. The
// manager logs the event at its declared firing level, then invokes every
// handler registered for the event's exact concrete type, in registration
// order, on the caller's goroutine. A failing handler is logged and does not
// stop the others.
//
// Architecture:
//   - Manager is an explicit context object, created once by the host and
//     passed to every producer and subscriber. There is no global instance.
//   - Handlers are matched on the exact dynamic type of the fired event.
//     Handlers for GameLoaded never see *GameLoaded or GameStarted.
//   - Subscribers are held through weak pointers. A collected subscriber is
//     never invoked and its bookkeeping is purged by the next sweep.
//   - Records go to a Sink; NewSlogSink adapts any slog logger.
//
// Basic example:
//
//	m := event.New(event.WithLogger(logger))
//	if err := m.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Shutdown(ctx)
//
//	event.Register(ctx, m, func(ctx context.Context, ev events.GameLoaded) error {
//	    fmt.Println("loaded", ev.Game)
//	    return nil
//	})
//
//	m.Fire(ctx, events.GameLoaded{LoadTime: time.Now(), Game: "demo"})
//
// Subscribers declare their handlers with method expressions so the manager
// can hold them weakly:
//
//	type HUD struct{ ... }
//
//	func (h *HUD) Handlers() []event.Binding[HUD] {
//	    return []event.Binding[HUD]{
//	        event.On((*HUD).onGameStarted),
//	    }
//	}
//
//	func (h *HUD) onGameStarted(ctx context.Context, ev events.GameStarted) error { ... }
//
//	id, err := event.Subscribe(ctx, m, hud)
//
// Manager Options:
//   - WithName: set the manager name used for otel instruments and logs.
//   - WithSink / WithLogger: set where records go. Default is slog.Default().
//   - WithTracing: enable/disable an OpenTelemetry span per fire. Default is true.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//   - WithRecovery: enable/disable handler panic recovery. Default is true.
//   - WithSweepInterval: purge collected subscribers on a timer as well.
//   - WithLogLimiter: throttle firing records per event id.
//   - WithObserver: observe every handler invocation. Observers fans out to
//     several, e.g. the monitor recorder and the poison detector.
//
// Lifecycle:
//
// A Manager moves Uninitialized → Ready → ShuttingDown → Uninitialized.
// Init and Shutdown are idempotent and safe for concurrent use. Fire,
// Register and Subscribe fail with ErrNotInitialized outside Ready.
//
// Fire never times out: a handler that never returns blocks its caller.
package event
