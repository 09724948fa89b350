// Package logger wraps slog with one lazily built process-wide logger, so
// the server and the operator binaries share the same setup without an
// explicit init call. LOG_LEVEL sets the threshold and LOG_JSON=1 switches
// the handler to JSON output.
package logger

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once sync.Once
	base *slog.Logger
)

func Get() *slog.Logger {
	once.Do(func() {
		opts := &slog.HandlerOptions{Level: levelFromEnv()}
		var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
		if os.Getenv("LOG_JSON") == "1" {
			h = slog.NewJSONHandler(os.Stdout, opts)
		}
		base = slog.New(h)
		slog.SetDefault(base)
	})
	return base
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// Fatal logs at error level and exits.
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
