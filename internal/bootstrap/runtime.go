// Package bootstrap wires process-wide dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/middleware"
	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ServiceName string
	// WithRedis connects the shared Redis client. An unreachable Redis leaves Redis nil.
	WithRedis bool
	// WithTracing installs the OpenTelemetry provider described by the config.
	WithTracing bool
	// SkipSchema connects without applying the schema policy (cmd/migrate).
	SkipSchema bool
}

// Runtime is what a binary needs after startup.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, then connects to the database and Redis.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "chirp-api"
	}

	logger := middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)
	observability.SetLogger(logger)

	rt := &Runtime{shutdownTracing: func(context.Context) error { return nil }}
	if opts.WithTracing {
		exporter := "stdout"
		if cfg.OTLPEndpoint != "" {
			exporter = "otlp"
		}
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    opts.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       exporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		_ = rt.shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if opts.WithRedis {
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	logger.Info("runtime initialized",
		"service", opts.ServiceName,
		"env", cfg.Env,
		"redis", rt.Redis != nil,
		"tracing", opts.WithTracing && cfg.TracingEnabled,
	)
	return rt, nil
}

// ShutdownTracing flushes pending spans.
func (r *Runtime) ShutdownTracing(ctx context.Context) error {
	return r.shutdownTracing(ctx)
}

// Close releases everything InitRuntime opened. Binaries that hand DB and Redis to a
// server should let the server close them and call ShutdownTracing instead.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	errs = append(errs, r.shutdownTracing(ctx))
	return errors.Join(errs...)
}
