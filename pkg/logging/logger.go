// Package logging is a thin wrapper over slog that fixes the output format
// for the whole service: JSON lines on stdout, level chosen by config.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logger embeds *slog.Logger so call sites use the slog API directly.
type Logger struct {
	*slog.Logger
}

// New builds a JSON logger at the named level. The level is matched
// case-insensitively; anything unrecognized falls back to info.
func New(level string) *Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return &Logger{Logger: slog.New(handler)}
}

// Default returns an info-level logger.
func Default() *Logger {
	return New("info")
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}
