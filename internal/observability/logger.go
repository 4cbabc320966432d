package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRunID ctxKey = "run_id"
)

// basic global logger, text to stderr so result output on stdout stays clean.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

func Logger() *slog.Logger {
	return logger
}

// Setup replaces the global logger. level is one of debug, info, warn, error.
func Setup(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	return logger
}

// ParseLevel maps a config string to a slog level, defaulting to warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewRun stores a fresh run id in the context and returns it.
func NewRun(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, ctxKeyRunID, id), id
}

// LoggerFromContext adds run_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logger
	}
	runID, _ := ctx.Value(ctxKeyRunID).(string)
	if runID == "" {
		return logger
	}
	return logger.With("run_id", runID)
}
