package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  error  ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewJSONLoggerLevelGate(t *testing.T) {
	logger := NewJSONLogger("api", "warn")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be suppressed at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("warn must be enabled at warn level")
	}
}
