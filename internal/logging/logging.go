// Package logging builds the zerolog loggers shared by every component.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w. format "json" emits one JSON object per
// line; anything else uses the human-readable console writer.
func New(levelStr, format string, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithRun tags every entry of log with a fresh run id so the lines of one
// invocation can be grouped.
func WithRun(log zerolog.Logger) (zerolog.Logger, string) {
	runID := uuid.NewString()
	return log.With().Str("run_id", runID).Logger(), runID
}

// Component derives the logger used inside a single package.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
