package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Dev gets debug level and
// source locations; anything else logs info and up.
func NewLogger(env string) *slog.Logger {
	dev := env == "dev"

	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: dev,
	})

	// trace ids ride along when a span is active
	return slog.New(NewTraceHandler(handler)).With("env", env)
}
