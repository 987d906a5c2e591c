// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}

// New builds a logger writing to w, tagged with the component name.
func New(w io.Writer, level string, json bool, component string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With("component", component)
}

// Setup installs a stdout logger for component as the slog default.
func Setup(level string, json bool, component string) *slog.Logger {
	l := New(os.Stdout, level, json, component)
	slog.SetDefault(l)

	return l
}
