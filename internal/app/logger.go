package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process-wide slog.Logger. JSON output feeds a log
// shipper in production; the text handler suits a terminal at the counter.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
