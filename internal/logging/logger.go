// Package logging builds the loggers hosts hand to the engine. All of
// them write to stderr so stdout stays free for run output and wire
// protocols (JSON-RPC over stdio, SSE streams).
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the standard text logger for terminal hosts.
// Common keys are normalized ("error" becomes "err").
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, options(level)))
}

// NewJSON creates a JSON-lines logger for serve hosts whose stderr is
// collected by an aggregator rather than read by a person.
func NewJSON(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, options(level)))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func options(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
}
