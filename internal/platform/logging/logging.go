package logging

import (
	"io"
	"log/slog"

	"github.com/lepinkainen/humanlog"
)

// New returns a human-readable logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(humanlog.NewHandler(w, &humanlog.Options{
		Level: level,
	}))
}

// Init installs a human-readable default logger and returns it.
func Init(w io.Writer, level slog.Level) *slog.Logger {
	logger := New(w, level)
	slog.SetDefault(logger)
	return logger
}
