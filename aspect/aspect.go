// Package aspect keeps UI components at the right stretch mode as the game
// window is resized.
//
// An Adjuster subscribes to the event manager. Components register with it
// when they start and are held weakly, so a component dropped by the scene
// graph is forgotten without having to call Remove.
package aspect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/stridesaber/event"
	"github.com/stridesaber/event/events"
)

// Stretch is how a UI component adapts its virtual resolution to the
// window.
type Stretch int32

const (
	// StretchUnset is the mode of a component the adjuster has not touched.
	StretchUnset Stretch = iota
	// FixedWidthAdaptableHeight keeps the UI width and grows or shrinks its
	// height. Used when the window is narrower than the UI.
	FixedWidthAdaptableHeight
	// FixedHeightAdaptableWidth keeps the UI height and grows or shrinks its
	// width. Used when the window is wider than the UI, so nothing goes out
	// of bounds vertically.
	FixedHeightAdaptableWidth
)

func (s Stretch) String() string {
	switch s {
	case StretchUnset:
		return "unset"
	case FixedWidthAdaptableHeight:
		return "fixed_width_adaptable_height"
	case FixedHeightAdaptableWidth:
		return "fixed_height_adaptable_width"
	default:
		return fmt.Sprintf("Stretch(%d)", int32(s))
	}
}

// Choose returns the stretch mode for a window and UI aspect ratio, both
// expressed as width over height.
func Choose(windowAspect, uiAspect float64) Stretch {
	if windowAspect > uiAspect {
		return FixedHeightAdaptableWidth
	}
	return FixedWidthAdaptableHeight
}

// Component is a UI component with a fixed virtual resolution.
type Component struct {
	Name   string
	Width  float64
	Height float64

	stretch atomic.Int32
}

// NewComponent creates a component with the given virtual resolution.
func NewComponent(name string, width, height float64) *Component {
	return &Component{Name: name, Width: width, Height: height}
}

// Aspect returns the component's width over height.
func (c *Component) Aspect() float64 {
	if c.Height == 0 {
		return 0
	}
	return c.Width / c.Height
}

// Stretch returns the current stretch mode.
func (c *Component) Stretch() Stretch {
	return Stretch(c.stretch.Load())
}

func (c *Component) setStretch(s Stretch) {
	c.stretch.Store(int32(s))
}

// Adjuster applies the stretch mode to every live component whenever the
// window changes size. It does nothing until the game has started.
type Adjuster struct {
	logger *slog.Logger

	mu        sync.Mutex
	instances map[weak.Pointer[Component]]struct{}
	started   bool
	width     int
	height    int
}

// NewAdjuster creates an adjuster that logs to l.
func NewAdjuster(l *slog.Logger) *Adjuster {
	if l == nil {
		l = slog.Default()
	}
	return &Adjuster{
		logger:    l.With("component", "aspect"),
		instances: make(map[weak.Pointer[Component]]struct{}),
	}
}

// Handlers implements event.Declarer.
func (a *Adjuster) Handlers() []event.Binding[Adjuster] {
	return []event.Binding[Adjuster]{
		event.On((*Adjuster).onGameStarted),
		event.On((*Adjuster).onWindowResized),
	}
}

// Add tracks c. If the game has already started, c is adjusted right away.
func (a *Adjuster) Add(c *Component) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instances[weak.Make(c)] = struct{}{}
	if a.started {
		a.apply(c)
	}
}

// Remove stops tracking c.
func (a *Adjuster) Remove(c *Component) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.instances, weak.Make(c))
}

// Len returns the number of tracked components, including collected ones
// not yet pruned.
func (a *Adjuster) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.instances)
}

func (a *Adjuster) onGameStarted(ctx context.Context, ev events.GameStarted) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = true
	a.adjustAll(ev.Width, ev.Height)
	return nil
}

func (a *Adjuster) onWindowResized(ctx context.Context, ev events.WindowResized) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.adjustAll(ev.Width, ev.Height)
	return nil
}

// adjustAll prunes collected components and adjusts the rest. Caller holds
// mu.
func (a *Adjuster) adjustAll(width, height int) {
	a.width, a.height = width, height
	for ref := range a.instances {
		c := ref.Value()
		if c == nil {
			delete(a.instances, ref)
			continue
		}
		a.apply(c)
	}
}

func (a *Adjuster) apply(c *Component) {
	if a.width <= 0 || a.height <= 0 {
		return
	}
	windowAspect := float64(a.width) / float64(a.height)
	uiAspect := c.Aspect()
	stretch := Choose(windowAspect, uiAspect)
	a.logger.Debug("aspect",
		"ui", c.Name,
		"window_aspect", fmt.Sprintf("%.1f", windowAspect),
		"ui_aspect", fmt.Sprintf("%.1f", uiAspect))
	a.logger.Log(context.Background(), event.SlogLevelVerbose, "resolution",
		"ui", c.Name,
		"window", fmt.Sprintf("%dx%d", a.width, a.height),
		"ui_resolution", fmt.Sprintf("%gx%g", c.Width, c.Height),
		"stretch", stretch.String())
	c.setStretch(stretch)
}
