package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is a thin structured logger used across the service. Call sites
// pass alternating key/value pairs after the message.
type Logger struct {
	*slog.Logger
}

func NewLogger(level string) *Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &Logger{slog.New(handler)}
}

// With returns a Logger with the given key/value pairs attached to every
// record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}
