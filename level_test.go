package event

import (
	"errors"
	"log/slog"
	"testing"
)

func TestLevelSlogMapping(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelVerbose, SlogLevelVerbose},
		{LevelDebug, slog.LevelDebug},
		{LevelInformation, slog.LevelInfo},
		{LevelWarning, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LevelFatal, SlogLevelFatal},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got, err := tt.level.SlogLevel()
			if err != nil {
				t.Fatalf("SlogLevel() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
			if back := LevelFromSlog(got); back != tt.level {
				t.Errorf("LevelFromSlog(%v) = %v, want %v", got, back, tt.level)
			}
		})
	}
}

func TestLevelVerboseAndDebugDistinct(t *testing.T) {
	v, _ := LevelVerbose.SlogLevel()
	d, _ := LevelDebug.SlogLevel()
	if v >= d {
		t.Errorf("verbose %v should sort below debug %v", v, d)
	}
}

func TestLevelUnknown(t *testing.T) {
	for _, l := range []Level{LevelNone, Level(-1), Level(7), Level(42)} {
		_, err := l.SlogLevel()
		if !IsUnknownLevel(err) {
			t.Errorf("level %d: expected unknown level error, got %v", int(l), err)
		}
	}
	if Level(42).Valid() {
		t.Error("Level(42) reported valid")
	}
	if !LevelNone.Valid() {
		t.Error("LevelNone reported invalid")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelNone, false},
		{"none", LevelNone, false},
		{"VERBOSE", LevelVerbose, false},
		{"vrb", LevelVerbose, false},
		{"debug", LevelDebug, false},
		{" Info ", LevelInformation, false},
		{"information", LevelInformation, false},
		{"warn", LevelWarning, false},
		{"error", LevelError, false},
		{"ftl", LevelFatal, false},
		{"loud", LevelNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelText(t *testing.T) {
	for l := LevelNone; l <= LevelFatal; l++ {
		text, err := l.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", l, err)
		}
		var back Level
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if back != l {
			t.Errorf("round trip %v -> %q -> %v", l, text, back)
		}
	}
	if _, err := Level(42).MarshalText(); !IsUnknownLevel(err) {
		t.Errorf("expected unknown level error, got %v", err)
	}
}
