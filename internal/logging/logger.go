// Package logging sets up the engine's structured logger and hands out
// per-component child loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process-wide slog handler from a level name (one of
// "debug", "info", "warn", "error", case-insensitive; defaults to info on
// anything else) and installs it via slog.SetDefault, mirroring how the
// engine's components call slog.Info/Warn/Debug/Error directly against the
// default logger rather than threading a logger value through every call.
func Setup(levelName string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(levelName)}
	logger := slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// For returns a child logger scoped to component, e.g. logging.For("transport").
// Every record from the returned logger carries a "component" attribute,
// matching the teacher's convention of tagging log lines with the
// originating subsystem.
func For(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
