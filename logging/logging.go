// Package logging builds the host's slog pipeline: level-indented text or
// JSON output with short level names, a buffered writer flushed on
// shutdown, and a bridge for the engine's own log messages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/stridesaber/event"
)

// Format selects the record encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Config configures a logger.
type Config struct {
	// Level is the minimum level written. LevelNone writes everything.
	Level event.Level

	Format Format

	// Indent prefixes debug messages with one tab and verbose messages
	// with two, so detail nests under the information it belongs to.
	Indent bool

	AddSource bool
}

// DefaultConfig writes everything as indented text.
func DefaultConfig() Config {
	return Config{
		Level:  event.LevelVerbose,
		Format: FormatText,
		Indent: true,
	}
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(NewHandler(w, cfg))
}

// NewHandler creates the handler behind New.
func NewHandler(w io.Writer, cfg Config) slog.Handler {
	minLevel, err := cfg.Level.SlogLevel()
	if err != nil {
		minLevel = event.SlogLevelVerbose
	}
	opts := &slog.HandlerOptions{
		Level:     minLevel,
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	switch cfg.Format {
	case FormatJSON:
		opts.ReplaceAttr = replaceLevel
		h = slog.NewJSONHandler(w, opts)
	default:
		opts.ReplaceAttr = replaceText
		h = slog.NewTextHandler(w, opts)
	}
	if cfg.Indent {
		h = NewIndentHandler(h)
	}
	return h
}

// LevelName returns the three letter name of a slog level.
func LevelName(l slog.Level) string {
	switch event.LevelFromSlog(l) {
	case event.LevelVerbose:
		return "VRB"
	case event.LevelDebug:
		return "DBG"
	case event.LevelInformation:
		return "INF"
	case event.LevelWarning:
		return "WRN"
	case event.LevelError:
		return "ERR"
	default:
		return "FTL"
	}
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(l))
		}
	}
	return a
}

func replaceText(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format("15:04:05"))
		return a
	}
	return replaceLevel(groups, a)
}
