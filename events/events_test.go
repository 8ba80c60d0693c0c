package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stridesaber/event"
	"syreclabs.com/go/faker"
)

func init() {
	faker.Seed(time.Now().UnixNano())
}

func TestFiringLevels(t *testing.T) {
	tests := []struct {
		ev   event.Event
		id   string
		want event.Level
	}{
		{GameLoaded{}, "GameLoaded", event.LevelInformation},
		{GameStarted{}, "GameStarted", event.LevelInformation},
		{GameStopping{}, "GameStopping", event.LevelInformation},
		{FrameUpdated{}, "FrameUpdated", event.LevelNone},
		{WindowResized{}, "WindowResized", event.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := event.IDOf(tt.ev); got != tt.id {
				t.Errorf("IDOf() = %q, want %q", got, tt.id)
			}
			if got := tt.ev.FiringLevel(); got != tt.want {
				t.Errorf("FiringLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescriptions(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	tests := []struct {
		name string
		ev   event.Event
		want string
	}{
		{"loaded", GameLoaded{LoadTime: at, Game: "demo"}, "Game loaded at 2024-03-09 14:05:00"},
		{"started", GameStarted{StartTime: at, Game: "demo", Width: 1280, Height: 720}, "Game demo started at 2024-03-09 14:05:00 (1280x720)"},
		{"stopping", GameStopping{StopTime: at, Reason: "window closed"}, "Game stopping at 2024-03-09 14:05:00: window closed"},
		{"stopping no reason", GameStopping{StopTime: at}, "Game stopping at 2024-03-09 14:05:00"},
		{"frame", FrameUpdated{Frame: 42, Delta: 16 * time.Millisecond}, "Frame 42 (+16ms)"},
		{"resized", WindowResized{Width: 800, Height: 600}, "Window resized to 800x600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConstructorsCaptureTime(t *testing.T) {
	before := time.Now()
	game := faker.Lorem().Word()
	loaded := NewGameLoaded(game)
	started := NewGameStarted(game, 640, 480)
	stopping := NewGameStopping("test")
	after := time.Now()

	for name, ts := range map[string]time.Time{
		"loaded":   loaded.LoadTime,
		"started":  started.StartTime,
		"stopping": stopping.StopTime,
	} {
		if ts.Before(before) || ts.After(after) {
			t.Errorf("%s time %v outside [%v, %v]", name, ts, before, after)
		}
	}
	if !strings.HasPrefix(loaded.String(), "Game loaded at ") {
		t.Errorf("loaded description = %q", loaded.String())
	}
}

func TestWindowResizedAspect(t *testing.T) {
	tests := []struct {
		ev   WindowResized
		want float64
	}{
		{WindowResized{Width: 1920, Height: 1080}, 1920.0 / 1080.0},
		{WindowResized{Width: 600, Height: 800}, 0.75},
		{WindowResized{Width: 0, Height: 800}, 0},
		{WindowResized{Width: 800, Height: -1}, 0},
	}
	for _, tt := range tests {
		if got := tt.ev.Aspect(); got != tt.want {
			t.Errorf("%v.Aspect() = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	m, sink := event.TestManager()
	defer m.Shutdown(ctx)
	sink.Reset()

	var got []GameLoaded
	event.Register(ctx, m, func(_ context.Context, ev GameLoaded) error {
		got = append(got, ev)
		return nil
	})

	ev := NewGameLoaded(faker.Lorem().Word())
	if err := m.Fire(ctx, ev); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if err := m.Fire(ctx, FrameUpdated{Frame: 1}); err != nil {
		t.Fatalf("fire: %v", err)
	}
	if diff := cmp.Diff([]GameLoaded{ev}, got); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
	if n := event.HandlerCount[GameStarted](m); n != 0 {
		t.Errorf("GameStarted handlers = %d, want 0", n)
	}
	records := sink.RecordsWith("firing event")
	if len(records) != 1 || records[0].Attr("description") != ev.String() {
		t.Errorf("records = %v", records)
	}
}
