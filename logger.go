package assocmem

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with experiment-specific fields and helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRunID tags every record with the run identifier.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", id)}
}

// WithFold adds a fold field to the logger.
func (l *Logger) WithFold(fold int) *Logger {
	return &Logger{Logger: l.Logger.With("fold", fold)}
}

// WithSize adds a memory size field to the logger.
func (l *Logger) WithSize(size int) *Logger {
	return &Logger{Logger: l.Logger.With("size", size)}
}

// WithStage adds an incremental fill stage field to the logger.
func (l *Logger) WithStage(stage int) *Logger {
	return &Logger{Logger: l.Logger.With("stage", stage)}
}

// LogUnitStarted logs the start of a fold, size or fill unit.
func (l *Logger) LogUnitStarted(ctx context.Context, kind string) {
	l.DebugContext(ctx, kind+" started")
}

// LogUnit logs the outcome of a fold, size or fill unit.
func (l *Logger) LogUnit(ctx context.Context, kind string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, kind+" failed",
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, kind+" completed",
			"duration", duration,
		)
	}
}

// LogDegenerate warns that a fold has a single distinct feature value, so
// every sample quantizes to level 0.
func (l *Logger) LogDegenerate(ctx context.Context, value float64) {
	l.WarnContext(ctx, "degenerate quantization range, results are uninformative",
		"value", value,
	)
}

// LogStage logs the end of an incremental fill stage.
func (l *Logger) LogStage(ctx context.Context, samples, responses, probes int) {
	l.DebugContext(ctx, "fill stage completed",
		"samples", samples,
		"responses", responses,
		"probes", probes,
	)
}

// LogReport logs a written report or snapshot.
func (l *Logger) LogReport(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "report failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "report written",
			"name", name,
		)
	}
}

// LogRunSummary logs how many units of a run succeeded.
func (l *Logger) LogRunSummary(ctx context.Context, kind string, total, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, kind+" run completed with failures",
			"total", total,
			"failed", failed,
			"success", total-failed,
		)
	} else {
		l.InfoContext(ctx, kind+" run completed",
			"count", total,
		)
	}
}
