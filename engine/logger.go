package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger is an optional interface for observability during session and
// execution operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// NopLogger is a Logger that discards all messages.
type NopLogger struct{}

// Logf discards the message.
func (NopLogger) Logf(string, ...any) {}

// slogLogger adapts a slog.Logger to the Logger interface.
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a Logger that emits at info level to the given
// slog.Logger.
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

func (l *slogLogger) Logf(format string, args ...any) {
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...))
}
