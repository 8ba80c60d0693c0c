package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stridesaber/event"
)

// IndentString is repeated once per indent step.
const IndentString = "\t"

// Indent returns the message prefix for a level: one step for debug, two
// for verbose, none otherwise.
func Indent(l slog.Level) string {
	switch event.LevelFromSlog(l) {
	case event.LevelDebug:
		return strings.Repeat(IndentString, 1)
	case event.LevelVerbose:
		return strings.Repeat(IndentString, 2)
	default:
		return ""
	}
}

// IndentHandler prefixes each record's message with the indent for its
// level before passing it on.
type IndentHandler struct {
	next slog.Handler
}

// NewIndentHandler wraps next.
func NewIndentHandler(next slog.Handler) *IndentHandler {
	return &IndentHandler{next: next}
}

func (h *IndentHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *IndentHandler) Handle(ctx context.Context, r slog.Record) error {
	if prefix := Indent(r.Level); prefix != "" {
		r.Message = prefix + r.Message
	}
	return h.next.Handle(ctx, r)
}

func (h *IndentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &IndentHandler{next: h.next.WithAttrs(attrs)}
}

func (h *IndentHandler) WithGroup(name string) slog.Handler {
	return &IndentHandler{next: h.next.WithGroup(name)}
}

// Compile-time check
var _ slog.Handler = (*IndentHandler)(nil)
