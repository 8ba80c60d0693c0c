package aspect

import (
	"context"
	"runtime"
	"testing"

	"github.com/stridesaber/event"
	"github.com/stridesaber/event/events"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name       string
		window, ui float64
		want       Stretch
	}{
		{"wider window", 16.0 / 9.0, 4.0 / 3.0, FixedHeightAdaptableWidth},
		{"narrower window", 4.0 / 3.0, 16.0 / 9.0, FixedWidthAdaptableHeight},
		{"equal", 1.5, 1.5, FixedWidthAdaptableHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Choose(tt.window, tt.ui); got != tt.want {
				t.Errorf("Choose(%v, %v) = %v, want %v", tt.window, tt.ui, got, tt.want)
			}
		})
	}
}

func TestAdjuster(t *testing.T) {
	ctx := context.Background()
	m, _ := event.TestManager()
	defer m.Shutdown(ctx)

	adj := NewAdjuster(nil)
	if _, err := event.Subscribe(ctx, m, adj); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hud := NewComponent("hud", 1280, 720)
	adj.Add(hud)

	m.Fire(ctx, events.WindowResized{Width: 800, Height: 800})
	if hud.Stretch() != StretchUnset {
		t.Errorf("adjusted before game start: %v", hud.Stretch())
	}

	m.Fire(ctx, events.GameStarted{Width: 1920, Height: 1080})
	if hud.Stretch() != FixedWidthAdaptableHeight {
		t.Errorf("after start = %v", hud.Stretch())
	}

	m.Fire(ctx, events.WindowResized{Width: 2560, Height: 1080})
	if hud.Stretch() != FixedHeightAdaptableWidth {
		t.Errorf("after widen = %v", hud.Stretch())
	}

	m.Fire(ctx, events.WindowResized{Width: 600, Height: 800})
	if hud.Stretch() != FixedWidthAdaptableHeight {
		t.Errorf("after narrow = %v", hud.Stretch())
	}

	late := NewComponent("late", 800, 600)
	adj.Add(late)
	if late.Stretch() != FixedWidthAdaptableHeight {
		t.Errorf("late component not adjusted on add: %v", late.Stretch())
	}

	adj.Remove(late)
	m.Fire(ctx, events.WindowResized{Width: 4000, Height: 1000})
	if late.Stretch() != FixedWidthAdaptableHeight {
		t.Error("removed component adjusted")
	}
	runtime.KeepAlive(adj)
}

//go:noinline
func addTransient(adj *Adjuster) {
	adj.Add(NewComponent("transient", 100, 100))
}

func TestAdjusterPrunesCollected(t *testing.T) {
	ctx := context.Background()
	m, _ := event.TestManager()
	defer m.Shutdown(ctx)

	adj := NewAdjuster(nil)
	event.Subscribe(ctx, m, adj)

	kept := NewComponent("kept", 100, 100)
	adj.Add(kept)
	addTransient(adj)
	if adj.Len() != 2 {
		t.Fatalf("len = %d, want 2", adj.Len())
	}

	runtime.GC()
	runtime.GC()
	m.Fire(ctx, events.GameStarted{Width: 200, Height: 100})

	if adj.Len() != 1 {
		t.Errorf("len after resize = %d, want 1", adj.Len())
	}
	if kept.Stretch() != FixedHeightAdaptableWidth {
		t.Errorf("kept = %v", kept.Stretch())
	}
	runtime.KeepAlive(kept)
	runtime.KeepAlive(adj)
}

//go:noinline
func subscribeTransientAdjuster(ctx context.Context, m *event.Manager, c *Component) {
	adj := NewAdjuster(nil)
	adj.Add(c)
	event.Subscribe(ctx, m, adj)
}

func TestAdjusterCollected(t *testing.T) {
	ctx := context.Background()
	m, _ := event.TestManager()
	defer m.Shutdown(ctx)

	c := NewComponent("orphan", 100, 100)
	subscribeTransientAdjuster(ctx, m, c)

	runtime.GC()
	runtime.GC()
	m.Fire(ctx, events.GameStarted{Width: 200, Height: 100})

	if c.Stretch() != StretchUnset {
		t.Errorf("collected adjuster still handled events: %v", c.Stretch())
	}
	if m.Subscribers() != 0 {
		t.Errorf("subscribers = %d, want 0", m.Subscribers())
	}
}
