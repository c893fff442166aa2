package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a logger for component honouring LOG_FORMAT and LOG_LEVEL.
func NewLogger(cfg *Config, component string) *slog.Logger {
	return newLogger(os.Stdout, cfg, component)
}

func newLogger(w io.Writer, cfg *Config, component string) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: parseLevel(cfg)}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	if component != "" {
		logger = logger.With(slog.String("component", component))
	}
	return logger
}

func parseLevel(cfg *Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(cfg.LogLevel) {
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
