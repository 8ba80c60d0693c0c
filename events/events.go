// Package events defines the events fired by the game host.
//
// Every event is an immutable value: all payload is captured by the
// constructor and no field is modified afterwards.
package events

import (
	"fmt"
	"time"

	"github.com/stridesaber/event"
)

// GameLoaded marks when the game is first loaded.
type GameLoaded struct {
	// LoadTime is the time the game was loaded at.
	LoadTime time.Time
	// Game is the name of the game that is running.
	Game string
}

// NewGameLoaded captures the current time.
func NewGameLoaded(game string) GameLoaded {
	return GameLoaded{LoadTime: time.Now(), Game: game}
}

func (e GameLoaded) String() string {
	return "Game loaded at " + e.LoadTime.Format(time.DateTime)
}

// FiringLevel implements event.Event.
func (GameLoaded) FiringLevel() event.Level { return event.LevelInformation }

// GameStarted is fired once the first window is up and the update loop is
// about to run.
type GameStarted struct {
	StartTime time.Time
	Game      string
	Width     int
	Height    int
}

// NewGameStarted captures the current time and the initial window size.
func NewGameStarted(game string, width, height int) GameStarted {
	return GameStarted{StartTime: time.Now(), Game: game, Width: width, Height: height}
}

func (e GameStarted) String() string {
	return fmt.Sprintf("Game %s started at %s (%dx%d)", e.Game, e.StartTime.Format(time.DateTime), e.Width, e.Height)
}

// FiringLevel implements event.Event.
func (GameStarted) FiringLevel() event.Level { return event.LevelInformation }

// GameStopping is fired before the event manager shuts down.
type GameStopping struct {
	StopTime time.Time
	Reason   string
}

// NewGameStopping captures the current time.
func NewGameStopping(reason string) GameStopping {
	return GameStopping{StopTime: time.Now(), Reason: reason}
}

func (e GameStopping) String() string {
	if e.Reason == "" {
		return "Game stopping at " + e.StopTime.Format(time.DateTime)
	}
	return fmt.Sprintf("Game stopping at %s: %s", e.StopTime.Format(time.DateTime), e.Reason)
}

// FiringLevel implements event.Event.
func (GameStopping) FiringLevel() event.Level { return event.LevelInformation }

// FrameUpdated is fired every frame. It is never logged.
type FrameUpdated struct {
	Frame uint64
	Delta time.Duration
}

func (e FrameUpdated) String() string {
	return fmt.Sprintf("Frame %d (+%s)", e.Frame, e.Delta)
}

// FiringLevel implements event.Event.
func (FrameUpdated) FiringLevel() event.Level { return event.LevelNone }

// WindowResized is fired when the client area of the game window changes.
type WindowResized struct {
	Width  int
	Height int
}

func (e WindowResized) String() string {
	return fmt.Sprintf("Window resized to %dx%d", e.Width, e.Height)
}

// FiringLevel implements event.Event.
func (WindowResized) FiringLevel() event.Level { return event.LevelDebug }

// Aspect returns width divided by height, or 0 for a degenerate window.
func (e WindowResized) Aspect() float64 {
	if e.Width <= 0 || e.Height <= 0 {
		return 0
	}
	return float64(e.Width) / float64(e.Height)
}

// Compile-time checks
var (
	_ event.Event = GameLoaded{}
	_ event.Event = GameStarted{}
	_ event.Event = GameStopping{}
	_ event.Event = FrameUpdated{}
	_ event.Event = WindowResized{}
)
