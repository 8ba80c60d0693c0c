package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stridesaber/event"
	"syreclabs.com/go/faker"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLevelName(t *testing.T) {
	tests := map[slog.Level]string{
		event.SlogLevelVerbose: "VRB",
		slog.LevelDebug:        "DBG",
		slog.LevelInfo:         "INF",
		slog.LevelWarn:         "WRN",
		slog.LevelError:        "ERR",
		event.SlogLevelFatal:   "FTL",
	}
	for l, want := range tests {
		if got := LevelName(l); got != want {
			t.Errorf("LevelName(%v) = %q, want %q", l, got, want)
		}
	}
}

func TestIndent(t *testing.T) {
	tests := map[slog.Level]string{
		event.SlogLevelVerbose: "\t\t",
		slog.LevelDebug:        "\t",
		slog.LevelInfo:         "",
		slog.LevelWarn:         "",
		slog.LevelError:        "",
		event.SlogLevelFatal:   "",
	}
	for l, want := range tests {
		if got := Indent(l); got != want {
			t.Errorf("Indent(%v) = %q, want %q", l, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	logger := New(&buf, cfg)

	ctx := context.Background()
	logger.Log(ctx, event.SlogLevelVerbose, "verbose")
	logger.Debug("debug")
	logger.With("component", "hud").Info("info")
	logger.Log(ctx, event.SlogLevelFatal, "fatal")

	lines := decode(t, &buf)
	var got [][2]string
	for _, l := range lines {
		got = append(got, [2]string{l["level"].(string), l["msg"].(string)})
	}
	want := [][2]string{
		{"VRB", "\t\tverbose"},
		{"DBG", "\tdebug"},
		{"INF", "info"},
		{"FTL", "fatal"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if lines[2]["component"] != "hud" {
		t.Errorf("attrs lost through indent handler: %v", lines[2])
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: event.LevelInformation, Format: FormatText, Indent: true})
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written below minimum level: %q", out)
	}
	if !strings.Contains(out, "level=INF") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNoIndent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: event.LevelVerbose, Format: FormatJSON})
	logger.Debug("flat")
	if lines := decode(t, &buf); lines[0]["msg"] != "flat" {
		t.Errorf("msg = %q", lines[0]["msg"])
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	p := NewPipeline(&out, Config{Level: event.LevelVerbose, Format: FormatJSON})

	p.Logger().Info("before init")
	if err := p.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
	p.Logger().Info("running")
	if out.Len() != 0 {
		t.Errorf("records written before flush: %q", out.String())
	}

	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	var msgs []string
	for _, l := range decode(t, &out) {
		msgs = append(msgs, l["msg"].(string))
	}
	want := []string{"Logger initialized", "running", "Logger shutting down"}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}
	if p.Initialized() {
		t.Error("pipeline still initialized")
	}
}

func TestPipelineConcurrentInit(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	p := NewPipeline(&out, Config{Format: FormatJSON})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Init(ctx)
			p.Logger().Info(faker.Lorem().Word())
		}()
	}
	wg.Wait()
	p.Shutdown(ctx)

	n := 0
	for _, l := range decode(t, &out) {
		if l["msg"] == "Logger initialized" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("init records = %d, want 1", n)
	}
}

func TestPipelineSink(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	p := NewPipeline(&out, Config{Level: event.LevelVerbose, Format: FormatJSON})
	sink := p.Sink("event>test")
	p.Init(ctx)

	sink.Log(ctx, event.LevelWarning, "careful", "event_id", "X")
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	lines := decode(t, &out)
	last := lines[len(lines)-1]
	if last["msg"] != "careful" || last["level"] != "WRN" || last["component"] != "event>test" || last["event_id"] != "X" {
		t.Errorf("record = %v", last)
	}
	p.Shutdown(ctx)
}

func TestBridge(t *testing.T) {
	var buf bytes.Buffer
	b := NewBridge(New(&buf, Config{Level: event.LevelVerbose, Format: FormatJSON}))
	ctx := context.Background()

	types := []MessageType{MessageDebug, MessageVerbose, MessageInfo, MessageWarning, MessageError, MessageFatal}
	for _, mt := range types {
		if err := b.Log(ctx, Message{Module: "Graphics", Type: mt, Text: mt.String()}); err != nil {
			t.Fatalf("log %v: %v", mt, err)
		}
	}
	b.Log(ctx, Message{Module: "Audio", Type: MessageError, Text: "device lost", Exception: "stack here"})

	lines := decode(t, &buf)
	var got []string
	for _, l := range lines[:len(types)] {
		got = append(got, l["level"].(string))
	}
	if diff := cmp.Diff([]string{"DBG", "VRB", "INF", "WRN", "ERR", "FTL"}, got); diff != "" {
		t.Errorf("levels (-want +got):\n%s", diff)
	}
	if lines[0]["component"] != "S3D::Graphics" {
		t.Errorf("component = %v", lines[0]["component"])
	}
	if last := lines[len(lines)-1]; last["exception"] != "stack here" {
		t.Errorf("exception = %v", last["exception"])
	}
}

func TestBridgeUnknownType(t *testing.T) {
	var buf bytes.Buffer
	b := NewBridge(New(&buf, DefaultConfig()))
	err := b.Log(context.Background(), Message{Type: MessageType(99), Text: "?"})

	var typeErr *UnknownMessageTypeError
	if !errors.As(err, &typeErr) || typeErr.Type != 99 {
		t.Errorf("expected *UnknownMessageTypeError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unknown message written: %q", buf.String())
	}
}

func TestPipelineDeferred(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	p := NewPipeline(&out, Config{Level: event.LevelVerbose, Format: FormatJSON})
	logger := p.Deferred().With("component", "early").WithGroup("g")

	logger.Info("dropped", "k", 1)
	p.Init(ctx)
	logger.Info("kept", "k", 2)
	p.Shutdown(ctx)
	p.Init(ctx)
	logger.Info("again", "k", 3)
	p.Shutdown(ctx)

	var msgs []string
	for _, l := range decode(t, &out) {
		if l["component"] != "early" {
			continue
		}
		msgs = append(msgs, l["msg"].(string))
		if g, ok := l["g"].(map[string]any); !ok || g["k"] == nil {
			t.Errorf("group lost: %v", l)
		}
	}
	if diff := cmp.Diff([]string{"kept", "again"}, msgs); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}
}
