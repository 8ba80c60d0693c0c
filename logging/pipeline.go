package logging

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stridesaber/event"
)

// syncWriter serializes writes and flushes on a buffered writer.
type syncWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Pipeline owns the process logger. Init and Shutdown are idempotent and
// safe for concurrent use; a pipeline may be initialized again after
// shutdown.
type Pipeline struct {
	out io.Writer
	cfg Config

	mu          sync.Mutex
	initialized bool
	buf         *syncWriter
	logger      *slog.Logger
}

// NewPipeline creates a pipeline writing to out once initialized.
func NewPipeline(out io.Writer, cfg Config) *Pipeline {
	return &Pipeline{out: out, cfg: cfg}
}

// Init builds the logger and logs "Logger initialized".
func (p *Pipeline) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	p.buf = &syncWriter{w: bufio.NewWriter(p.out)}
	p.logger = New(p.buf, p.cfg)
	p.initialized = true
	p.logger.InfoContext(ctx, "Logger initialized")
	return nil
}

// Shutdown logs "Logger shutting down" and flushes buffered output.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil
	}
	p.logger.InfoContext(ctx, "Logger shutting down")
	err := p.buf.Flush()
	p.initialized = false
	p.logger = nil
	return err
}

// Initialized reports whether Init has run without a later Shutdown.
func (p *Pipeline) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// Logger returns the pipeline logger. Before Init it discards everything.
func (p *Pipeline) Logger() *slog.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// Flush writes buffered records to the output.
func (p *Pipeline) Flush(context.Context) error {
	p.mu.Lock()
	buf := p.buf
	p.mu.Unlock()
	if buf == nil {
		return nil
	}
	return buf.Flush()
}

// Deferred returns a logger that writes through whatever logger the
// pipeline holds when each record arrives, so it may be created before Init
// and keeps working across Shutdown and a later Init.
func (p *Pipeline) Deferred() *slog.Logger {
	return slog.New(&deferredHandler{p: p})
}

// Sink returns an event sink over Deferred tagged with the component name.
// Closing it flushes the pipeline.
func (p *Pipeline) Sink(component string) *event.SlogSink {
	return event.NewSlogSink(p.Deferred().With("component", component), p.Flush)
}

// deferredHandler resolves the pipeline handler per call and replays the
// attrs and groups added to it.
type deferredHandler struct {
	p   *Pipeline
	ops []func(slog.Handler) slog.Handler
}

func (h *deferredHandler) resolve() slog.Handler {
	next := h.p.Logger().Handler()
	for _, op := range h.ops {
		next = op(next)
	}
	return next
}

func (h *deferredHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.resolve().Enabled(ctx, l)
}

func (h *deferredHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *deferredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *deferredHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *deferredHandler) with(op func(slog.Handler) slog.Handler) *deferredHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &deferredHandler{p: h.p, ops: append(ops, op)}
}
