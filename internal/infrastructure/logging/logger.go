// Package logging provides structured logging on top of log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	familyKey    contextKey = "family"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Init builds the process logger. format is "json" or "text"; output
// defaults to stderr so command results on stdout stay clean.
func Init(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Default returns the process logger, initializing a warn-level text
// logger on first use.
func Default() *slog.Logger {
	mu.RLock()
	logger := defaultLogger
	mu.RUnlock()
	if logger != nil {
		return logger
	}
	return Init("warn", "text", nil)
}

// WithRequestID stores a request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithFamily stores the family graph name in ctx.
func WithFamily(ctx context.Context, family string) context.Context {
	return context.WithValue(ctx, familyKey, family)
}

// FromContext returns the process logger enriched with the request id and
// family carried by ctx.
func FromContext(ctx context.Context) *slog.Logger {
	logger := Default()
	if id := RequestID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if family, ok := ctx.Value(familyKey).(string); ok && family != "" {
		logger = logger.With("family", family)
	}
	return logger
}
