package config

import (
	"io"
	"log/slog"

	"github.com/Brownie44l1/tl-eval/internal/common"
)

// NewLogger builds a slog logger writing to w in the configured level and format.
func NewLogger(cfg LoggingConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, common.Errorf(common.ErrInvalidConfig, "invalid log level: %s", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "console":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, common.Errorf(common.ErrInvalidConfig, "invalid log format: %s", cfg.Format)
	}

	return slog.New(handler), nil
}
