// Package main runs the game host headless: it starts the event manager,
// drives a fixed-rate frame loop with scripted window resizes and shuts
// down on SIGINT/SIGTERM or after a number of frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/stridesaber/event"
	"github.com/stridesaber/event/aspect"
	"github.com/stridesaber/event/config"
	"github.com/stridesaber/event/host"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	width, height int
	fps           int
	frames        int
	resizeEvery   int
	showVersion   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()
	if opts.showVersion {
		fmt.Printf("stridesaber %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := host.New(cfg, os.Stderr)
	if err := h.OnStartup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start: %v\n", err)
		return 1
	}

	adj := aspect.NewAdjuster(h.Pipeline().Deferred())
	if _, err := event.Subscribe(ctx, h.Manager(), adj); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if serr := h.OnShutdown(context.Background(), "startup failed"); serr != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", serr)
		}
		return 1
	}
	hud := aspect.NewComponent("hud", 1920, 1080)
	adj.Add(hud)

	reason := loop(ctx, h, opts)

	stats := h.Manager().Stats()
	if err := h.OnShutdown(context.Background(), reason); err != nil {
		fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
		return 1
	}
	fmt.Printf("fired=%d handled=%d errors=%d panics=%d swept=%d stretch=%s\n",
		stats.Fired, stats.Handled, stats.HandlerErrors, stats.HandlerPanics, stats.Swept, hud.Stretch())
	runtime.KeepAlive(adj)
	return 0
}

// loop fires frame and resize events until ctx is done or the frame budget
// runs out, and returns the shutdown reason.
func loop(ctx context.Context, h *host.Host, opts options) string {
	if err := h.Start(ctx, opts.width, opts.height); err != nil {
		return err.Error()
	}

	ticker := time.NewTicker(time.Second / time.Duration(opts.fps))
	defer ticker.Stop()

	width, height := opts.width, opts.height
	for frame := 1; opts.frames <= 0 || frame <= opts.frames; frame++ {
		select {
		case <-ctx.Done():
			return "signal"
		case now := <-ticker.C:
			if err := h.Frame(ctx, now); err != nil {
				return err.Error()
			}
			if opts.resizeEvery > 0 && frame%opts.resizeEvery == 0 {
				// Alternate between a wide and a tall window.
				width, height = height*2, width/2
				if err := h.Resize(ctx, width, height); err != nil {
					return err.Error()
				}
			}
		}
	}
	return "frame budget reached"
}

func parseFlags() options {
	var opts options
	flag.IntVar(&opts.width, "width", 1280, "Initial window width")
	flag.IntVar(&opts.height, "height", 720, "Initial window height")
	flag.IntVar(&opts.fps, "fps", 60, "Frames per second")
	flag.IntVar(&opts.frames, "frames", 600, "Frames to run before stopping (0 runs until interrupted)")
	flag.IntVar(&opts.resizeEvery, "resize-every", 120, "Resize the window every N frames (0 disables)")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version information")
	flag.Parse()

	if opts.fps <= 0 {
		opts.fps = 60
	}
	return opts
}
