package logging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stridesaber/event"
)

// MessageType is the engine's own log message severity.
type MessageType int

const (
	MessageDebug MessageType = iota
	MessageVerbose
	MessageInfo
	MessageWarning
	MessageError
	MessageFatal
)

func (t MessageType) String() string {
	switch t {
	case MessageDebug:
		return "Debug"
	case MessageVerbose:
		return "Verbose"
	case MessageInfo:
		return "Info"
	case MessageWarning:
		return "Warning"
	case MessageError:
		return "Error"
	case MessageFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// UnknownMessageTypeError is returned for engine messages whose type has no
// level.
type UnknownMessageTypeError struct {
	Type MessageType
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("unknown engine message type %d", int(e.Type))
}

// LevelFor maps an engine message type onto a level. Engine Verbose and
// Debug map to the levels of the same name.
func LevelFor(t MessageType) (event.Level, error) {
	switch t {
	case MessageDebug:
		return event.LevelDebug, nil
	case MessageVerbose:
		return event.LevelVerbose, nil
	case MessageInfo:
		return event.LevelInformation, nil
	case MessageWarning:
		return event.LevelWarning, nil
	case MessageError:
		return event.LevelError, nil
	case MessageFatal:
		return event.LevelFatal, nil
	default:
		return event.LevelNone, &UnknownMessageTypeError{Type: t}
	}
}

// Message is a log message emitted by the engine.
type Message struct {
	Module    string
	Type      MessageType
	Text      string
	Exception string
}

// ComponentPrefix marks records forwarded from the engine.
const ComponentPrefix = "S3D::"

// Bridge forwards engine messages into a logger.
type Bridge struct {
	logger *slog.Logger
}

// NewBridge creates a bridge writing to l.
func NewBridge(l *slog.Logger) *Bridge {
	if l == nil {
		l = slog.Default()
	}
	return &Bridge{logger: l}
}

// Log writes msg at the level of its type, tagged with the module it came
// from.
func (b *Bridge) Log(ctx context.Context, msg Message) error {
	level, err := LevelFor(msg.Type)
	if err != nil {
		return err
	}
	sl, err := level.SlogLevel()
	if err != nil {
		return err
	}
	args := []any{"component", ComponentPrefix + msg.Module}
	if msg.Exception != "" {
		args = append(args, "exception", msg.Exception)
	}
	b.logger.Log(ctx, sl, msg.Text, args...)
	return nil
}
