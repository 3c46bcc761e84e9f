package walcache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with walcache-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithLog adds a log name field to the logger (useful when one process
// caches several logs).
func (l *Logger) WithLog(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("log", name),
	}
}

// WithSeq adds a commit-state sequence number field to the logger.
func (l *Logger) WithSeq(seq uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("seq", seq),
	}
}

// LogMiss logs a lookup that had to go to the device.
func (l *Logger) LogMiss(ctx context.Context, offset uint64, size int, seq uint64) {
	l.DebugContext(ctx, "cache miss",
		"offset", offset,
		"size", size,
		"seq", seq,
	)
}

// LogDeviceRead logs a read from the log device.
func (l *Logger) LogDeviceRead(ctx context.Context, offset uint64, size, n int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "device read failed",
			"offset", offset,
			"size", size,
			"read", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "device read completed",
			"offset", offset,
			"size", size,
			"duration", duration,
		)
	}
}

// LogInsertRejected logs an insertion the cache declined.
func (l *Logger) LogInsertRejected(ctx context.Context, offset uint64, size int, outcome InsertOutcome) {
	l.DebugContext(ctx, "cache insert rejected",
		"offset", offset,
		"size", size,
		"outcome", outcome.String(),
	)
}

// LogDisable logs that the cache was turned off for good.
func (l *Logger) LogDisable(ctx context.Context, reason string, memoryUsage, memoryLimit int64) {
	l.WarnContext(ctx, "cache disabled",
		"reason", reason,
		"memory_usage", memoryUsage,
		"memory_limit", memoryLimit,
	)
}

// LogInvariant logs an internal cache fault. The cache is cleared afterwards.
func (l *Logger) LogInvariant(ctx context.Context, err error) {
	l.ErrorContext(ctx, "cache invariant violated, clearing cache",
		"error", err,
	)
}

// LogReplay logs the end of a replay.
func (l *Logger) LogReplay(ctx context.Context, frames int, end uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "log replay failed",
			"frames", frames,
			"offset", end,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "log replay completed",
			"frames", frames,
			"offset", end,
		)
	}
}
