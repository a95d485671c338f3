// Package corelog provides the structured logging used by every core
// subsystem: a thin wrapper over log/slog with file + stderr fan-out and
// level control.
package corelog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls where and how core log records are written.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty disables file logging.
	FilePath string
	// WriteToStderr additionally mirrors records to stderr.
	WriteToStderr bool
}

// DefaultConfig returns the service default: info level, stderr only.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		WriteToStderr: true,
	}
}

func levelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
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

// New builds a *slog.Logger per Config. A core-specific "component"
// attribute is expected to be added by callers via Logger.With("component", name)
// so that records from the version manager, cache facade, and index
// lifecycle can be told apart in a shared log stream.
func New(cfg Config) (*slog.Logger, func() error, error) {
	var writers []io.Writer
	closeFn := func() error { return nil }

	if cfg.WriteToStderr || cfg.FilePath == "" {
		writers = append(writers, os.Stderr)
	}
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closeFn, err
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	var out io.Writer = io.MultiWriter(writers...)
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: levelFromString(cfg.Level)})
	return slog.New(handler), closeFn, nil
}

// Nop returns a logger that discards everything, used by default in tests.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
