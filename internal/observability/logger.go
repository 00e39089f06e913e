package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger emits JSON in production and text elsewhere. level accepts
// debug, info, warn or error; anything else keeps the environment default.
func NewLogger(env, level string) *slog.Logger {
	prod := env == "prod" || env == "production"
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if prod {
		opts.Level = slog.LevelInfo
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err == nil && level != "" {
		opts.Level = lvl
	}

	if prod {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With("service", "washa-backend")
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
