package event

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is the severity attached to an event or a log record.
type Level int

const (
	// LevelNone disables auto-logging of an event.
	LevelNone Level = iota
	// LevelVerbose is for tracing detail noisier than debug output.
	LevelVerbose
	// LevelDebug is for internal diagnostics.
	LevelDebug
	// LevelInformation is for normal, noteworthy operation.
	LevelInformation
	// LevelWarning is for unexpected but recoverable conditions.
	LevelWarning
	// LevelError is for failures of a single operation.
	LevelError
	// LevelFatal is for failures the host cannot continue from.
	LevelFatal
)

// Slog levels for the two tiers slog does not name.
const (
	SlogLevelVerbose = slog.LevelDebug - 4
	SlogLevelFatal   = slog.LevelError + 4
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	case LevelInformation:
		return "information"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// Valid reports whether l is one of the declared levels.
func (l Level) Valid() bool {
	return l >= LevelNone && l <= LevelFatal
}

// SlogLevel maps l onto a slog level. LevelNone has no slog equivalent and,
// like any undeclared value, yields an *UnknownLevelError.
func (l Level) SlogLevel() (slog.Level, error) {
	switch l {
	case LevelVerbose:
		return SlogLevelVerbose, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInformation:
		return slog.LevelInfo, nil
	case LevelWarning:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	case LevelFatal:
		return SlogLevelFatal, nil
	default:
		return 0, &UnknownLevelError{Level: l}
	}
}

// LevelFromSlog is the inverse of SlogLevel. Values between the named slog
// levels round down to the nearest declared level.
func LevelFromSlog(l slog.Level) Level {
	switch {
	case l >= SlogLevelFatal:
		return LevelFatal
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarning
	case l >= slog.LevelInfo:
		return LevelInformation
	case l >= slog.LevelDebug:
		return LevelDebug
	default:
		return LevelVerbose
	}
}

// ParseLevel parses a level name. It accepts the full names, the usual
// short forms (vrb, dbg, info, warn, err, ftl) and is case insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return LevelNone, nil
	case "verbose", "vrb", "trace":
		return LevelVerbose, nil
	case "debug", "dbg":
		return LevelDebug, nil
	case "information", "info", "inf":
		return LevelInformation, nil
	case "warning", "warn", "wrn":
		return LevelWarning, nil
	case "error", "err":
		return LevelError, nil
	case "fatal", "ftl":
		return LevelFatal, nil
	default:
		return LevelNone, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be read
// from configuration.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, &UnknownLevelError{Level: l}
	}
	return []byte(l.String()), nil
}
