package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/internal/config"
)

type (
	configKey   struct{}
	loggerKey   struct{}
	rendererKey struct{}
)

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithRenderer stores r in ctx.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetConfig retrieves the config from ctx, or the defaults when none was stored.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Dialect:   config.DefaultDialect,
		Output:    config.DefaultOutput,
		CacheSize: config.DefaultCacheSize,
		Target:    &config.TargetConfig{Type: config.DefaultTarget},
	}
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// GetRenderer retrieves the renderer from ctx.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeText)
}
