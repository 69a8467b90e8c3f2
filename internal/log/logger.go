// Package log is a thin leveled wrapper around log/slog shared by the server,
// the pipeline and the CLI.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
	level  = new(slog.LevelVar)
)

// ParseLevel maps a configuration string to a slog level. Unknown values
// resolve to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Initialize sets up the global logger writing text records to w.
func Initialize(lvl slog.Level, w io.Writer) {
	level.Set(lvl)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})

	mu.Lock()
	logger = slog.New(handler)
	mu.Unlock()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Enabled reports whether records at lvl are currently emitted.
func Enabled(lvl slog.Level) bool {
	return lvl >= level.Level()
}

func init() {
	Initialize(slog.LevelInfo, os.Stderr)
}
