package event

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func newJSONSink(buf *bytes.Buffer, closers ...func(context.Context) error) *SlogSink {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: SlogLevelVerbose})
	return NewSlogSink(slog.New(h), closers...)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := newJSONSink(&buf)
	ctx := context.Background()

	sink.Log(ctx, LevelVerbose, "v")
	sink.Log(ctx, LevelInformation, "i", "event_id", "GameLoaded")
	sink.Log(ctx, LevelFatal, "f")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0]["level"] != SlogLevelVerbose.String() {
		t.Errorf("verbose level = %v", lines[0]["level"])
	}
	if lines[1]["level"] != "INFO" || lines[1]["event_id"] != "GameLoaded" {
		t.Errorf("info line = %v", lines[1])
	}
	if lines[2]["level"] != SlogLevelFatal.String() {
		t.Errorf("fatal level = %v", lines[2]["level"])
	}
}

func TestSlogSinkUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	sink := newJSONSink(&buf)
	sink.Log(context.Background(), Level(42), "odd")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0]["level"] != "ERROR" || lines[0]["level_error"] == nil {
		t.Errorf("line = %v", lines[0])
	}
}

func TestSlogSinkClose(t *testing.T) {
	var calls []string
	first := errors.New("first")
	sink := newJSONSink(&bytes.Buffer{},
		func(context.Context) error { calls = append(calls, "a"); return first },
		func(context.Context) error { calls = append(calls, "b"); return nil },
	)
	err := sink.Close(context.Background())
	if !errors.Is(err, first) {
		t.Errorf("Close() = %v, want %v", err, first)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("closers ran %v", calls)
	}
}

func TestManagerWithSlogSink(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	m := New(
		WithSink(newJSONSink(&buf)),
		WithTracing(false),
		WithMetrics(false),
	)
	m.Init(ctx)
	m.Fire(ctx, testLoaded{Name: "demo"})
	m.Shutdown(ctx)

	lines := decodeLines(t, &buf)
	var fired []map[string]any
	for _, l := range lines {
		if l["msg"] == "firing event" {
			fired = append(fired, l)
		}
	}
	if len(fired) != 1 {
		t.Fatalf("firing records = %d, want 1", len(fired))
	}
	if fired[0]["level"] != "INFO" || fired[0]["event_id"] != "testLoaded" {
		t.Errorf("record = %v", fired[0])
	}
}
