package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"chirp/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// RateLimitRule names a bucket and its allowance.
type RateLimitRule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// bypassEnvs are environments where throttling would only get in the way.
var bypassEnvs = map[string]bool{
	"test":        true,
	"development": true,
	"stress":      true,
}

var errNoRedis = errors.New("redis client is nil")

// CheckRateLimit counts one hit for id against rule and reports whether it is still allowed,
// together with the remaining allowance.
func CheckRateLimit(ctx context.Context, rdb redis.Cmdable, rule RateLimitRule, id string) (bool, int, error) {
	if rdb == nil {
		return false, 0, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", rule.Name, id)

	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := incr.Val()
	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(rule.Limit), remaining, nil
}

// RateLimit returns a Fiber middleware enforcing rule per authenticated user, or per IP for anonymous callers.
func RateLimit(rdb redis.Cmdable, env string, rule RateLimitRule) fiber.Handler {
	if rule.Name == "" {
		rule.Name = "default"
	}
	return func(c *fiber.Ctx) error {
		if bypassEnvs[env] {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if uid, ok := UserIDFromLocals(c); ok {
			id = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		allowed, remaining, err := CheckRateLimit(c.UserContext(), rdb, rule, id)
		if err != nil {
			observability.RedisErrors.WithLabelValues("ratelimit").Inc()
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rule.Window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
