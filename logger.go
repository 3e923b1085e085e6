package graphsim

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with graphsim-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRunID adds a run_id field to the logger (useful for tagging one
// pipeline run across build, filter, and artifact stages).
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", runID),
	}
}

// WithKeyword adds the retrieval keyword field to the logger.
func (l *Logger) WithKeyword(keyword string) *Logger {
	return &Logger{
		Logger: l.Logger.With("keyword", keyword),
	}
}

// LogBuildIndex logs an index-build operation over a relation set.
func (l *Logger) LogBuildIndex(ctx context.Context, relations, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"relations", relations,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index built",
			"relations", relations,
			"dimension", dimension,
		)
	}
}

// LogFilter logs one filter pass over a batch of qualities.
func (l *Logger) LogFilter(ctx context.Context, qualities, kept, dropped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "similarity filter failed",
			"qualities", qualities,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "similarity filter completed",
			"qualities", qualities,
			"kept", kept,
			"dropped", dropped,
		)
	}
}

// LogResults emits per-item debug lines for a filter result, best score
// first. Summary rendering only; filtering logic is unaffected.
func (l *Logger) LogResults(ctx context.Context, kept []KeptQuality, dropped []DroppedQuality) {
	for _, item := range kept {
		l.DebugContext(ctx, "kept quality",
			"quality", item.Quality,
			"max_score", item.MaxScore,
			"neighbors", len(item.Neighbors),
		)
	}
	for _, item := range dropped {
		l.DebugContext(ctx, "dropped quality",
			"quality", item.Quality,
			"max_score", item.MaxScore,
		)
	}
}
