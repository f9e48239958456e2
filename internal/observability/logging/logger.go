// Package logging builds the structured loggers shared by the api and
// worker binaries. Both emit one JSON object per line on stdout so the
// streams can be shipped and filtered by the service attribute.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// NewJSONLogger returns a JSON slog logger tagged with the service name.
// Unknown level strings fall back to info rather than failing startup.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", service))
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}
