package logger

import (
	"log/slog"
	"os"
)

// New returns a structured logger: text for local development, JSON elsewhere.
func New(development bool) *slog.Logger {
	if development {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
