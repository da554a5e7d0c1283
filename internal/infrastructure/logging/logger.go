// Package logging provides structured logging infrastructure for the mcpnotes application.
// It wraps Go's standard log/slog package with context-aware logging, correlation IDs,
// and dispatch-specific log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// contextKey is used for storing logger-related values in context.
type contextKey string

const (
	// CorrelationIDKey is the context key for correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	// OperationKey is the context key for the dispatched operation name.
	OperationKey contextKey = "operation"
	// TransportKey is the context key for the transport serving a request.
	TransportKey contextKey = "transport"
	// ServerKey is the context key for the server identity name.
	ServerKey contextKey = "server"
)

// Level represents log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns the default logging configuration. Output is stderr:
// stdout belongs to the stdio transport.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     os.Stderr,
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger with additional functionality for mcpnotes.
type Logger struct {
	slogger  *slog.Logger
	levelVar *slog.LevelVar
}

var (
	global     *Logger
	globalOnce sync.Once
)

// Init initializes the global logger with the provided configuration.
// Only the first call has an effect.
func Init(cfg Config) *Logger {
	globalOnce.Do(func() {
		global = New(cfg)
	})
	return global
}

// Default returns the global logger, initializing it with defaults if necessary.
func Default() *Logger {
	return Init(DefaultConfig())
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(Config{Output: io.Discard})
}

// New creates a new Logger with the provided configuration.
func New(cfg Config) *Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		slogger:  slog.New(handler),
		levelVar: levelVar,
	}
}

// ParseLevel converts a Level to slog.Level. Unknown levels map to info.
func ParseLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel dynamically changes the log level.
func (l *Logger) SetLevel(level Level) {
	l.levelVar.Set(ParseLevel(level))
}

// With returns a new Logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slogger: l.slogger.With(args...), levelVar: l.levelVar}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.slogger.Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slogger.Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

// DebugContext logs at debug level with context.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, enrichArgs(ctx, args)...)
}

// InfoContext logs at info level with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, enrichArgs(ctx, args)...)
}

// WarnContext logs at warn level with context.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, enrichArgs(ctx, args)...)
}

// ErrorContext logs at error level with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, enrichArgs(ctx, args)...)
}

// enrichArgs extracts context values and adds them as log attributes.
func enrichArgs(ctx context.Context, args []any) []any {
	enriched := make([]any, 0, len(args)+8)

	for _, key := range []contextKey{CorrelationIDKey, ServerKey, TransportKey, OperationKey} {
		if v := ctx.Value(key); v != nil {
			enriched = append(enriched, string(key), v)
		}
	}

	return append(enriched, args...)
}

// Underlying returns the underlying slog.Logger.
func (l *Logger) Underlying() *slog.Logger {
	return l.slogger
}

// --- Context helpers ---

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// WithOperation adds an operation name to the context.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, OperationKey, name)
}

// WithTransport adds a transport name to the context.
func WithTransport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, TransportKey, name)
}

// WithServer adds a server identity name to the context.
func WithServer(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ServerKey, name)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if s, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return s
	}
	return ""
}

// --- Domain-specific logging helpers ---

// LogServerStart logs that a server began serving on a transport.
func LogServerStart(ctx context.Context, logger *Logger, server, version, transport, addr string) {
	args := []any{"server", server, "version", version, "transport", transport}
	if addr != "" {
		args = append(args, "addr", addr)
	}
	logger.InfoContext(ctx, "server started", args...)
}

// LogServerStop logs that a server stopped serving.
func LogServerStop(ctx context.Context, logger *Logger, server string, err error) {
	if err != nil {
		logger.ErrorContext(ctx, "server stopped", "server", server, "error", err.Error())
		return
	}
	logger.InfoContext(ctx, "server stopped", "server", server)
}

// LogDispatchStart logs the start of an operation dispatch.
func LogDispatchStart(ctx context.Context, logger *Logger, operation string, argCount int) {
	logger.DebugContext(ctx, "dispatch started",
		"op", operation,
		"arg_count", argCount,
	)
}

// LogDispatchComplete logs a dispatch that produced a success envelope.
func LogDispatchComplete(ctx context.Context, logger *Logger, operation string, duration time.Duration) {
	logger.InfoContext(ctx, "dispatch completed",
		"op", operation,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogDispatchFailed logs a dispatch that produced an error envelope.
func LogDispatchFailed(ctx context.Context, logger *Logger, operation, kind, message string, duration time.Duration) {
	level := logger.WarnContext
	if kind == "Internal" {
		level = logger.ErrorContext
	}
	level(ctx, "dispatch failed",
		"op", operation,
		"kind", kind,
		"error", message,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogStoreFallback logs that a store could not read its backing data and
// continued with an empty note set.
func LogStoreFallback(ctx context.Context, logger *Logger, backend, location string, err error) {
	logger.WarnContext(ctx, "note store unreadable, starting empty",
		"backend", backend,
		"location", location,
		"error", err.Error(),
	)
}

// LogRateLimited logs a request rejected by the rate limiter.
func LogRateLimited(ctx context.Context, logger *Logger, client string) {
	logger.WarnContext(ctx, "request rate limited", "client", client)
}
