// Package logging builds the service logger. The logger is created once in
// main and passed explicitly to constructors; no package mutates global
// logging state.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a text slog.Logger on stderr at the given level. Unknown
// levels fall back to info.
func New(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
