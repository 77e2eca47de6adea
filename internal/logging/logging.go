// Package logging builds the zerolog loggers shared by the driver packages.
// Diagnostics always go to a writer chosen by the caller (stderr in the
// binary), never to the report stream.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level, or an unknown one, is configured.
const DefaultLevel = zerolog.WarnLevel

// NewLogger returns a structured JSON logger tagged with component.
//
// Parameters:
//   - w: The destination writer.
//   - component: Value of the "component" field on every event.
//
// Returns:
//   - zerolog.Logger: The configured logger at DefaultLevel.
func NewLogger(w io.Writer, component string) zerolog.Logger {
	return zerolog.New(w).
		Level(DefaultLevel).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// NewConsoleLogger returns a human-readable logger for terminals.
func NewConsoleLogger(w io.Writer, component string, noColor bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).
		Level(DefaultLevel).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, falling back to
// DefaultLevel for empty or unknown names.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return DefaultLevel
	}
	return lvl
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger { return zerolog.Nop() }
