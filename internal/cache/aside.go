package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. It reports false on a miss, on a decode failure,
// or when no client is configured.
func GetJSON(ctx context.Context, key string, dest any) bool {
	if client == nil {
		return false
	}
	ctx, span := observability.TraceRedisOperation(ctx, "get")
	defer span.End()
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		middleware.Logger.WarnContext(ctx, "cache decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON stores value under key with ttl. Failures are logged and otherwise ignored.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	ctx, span := observability.TraceRedisOperation(ctx, "set")
	err = client.Set(ctx, key, raw, ttl).Err()
	observability.EndSpan(span, err)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

// Aside returns the cached value for key, or calls load, caches its result and returns it.
// The name labels the hit/miss metric.
func Aside[T any](ctx context.Context, name, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if GetJSON(ctx, key, &cached) {
		observability.RecordCache(name, true)
		return cached, nil
	}
	observability.RecordCache(name, false)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	SetJSON(ctx, key, value, ttl)
	return value, nil
}
