package middleware

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// RateLimiter provides Redis-backed fixed window rate limiting per client IP.
type RateLimiter struct {
	rdb       *redis.Client
	maxReqs   int
	windowSec int
	skip      []string
}

// NewRateLimiter creates a rate limiter. Paths starting with any of skip
// are not counted. A nil client disables limiting.
func NewRateLimiter(rdb *redis.Client, maxReqs, windowSec int, skip ...string) *RateLimiter {
	return &RateLimiter{
		rdb:       rdb,
		maxReqs:   maxReqs,
		windowSec: windowSec,
		skip:      skip,
	}
}

// Handler returns a Fiber middleware handler for rate limiting.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if rl.rdb == nil {
			return c.Next()
		}
		for _, prefix := range rl.skip {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		key := fmt.Sprintf("ratelimit:%s", c.IP())
		ctx := c.Context()

		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			slog.Warn("rate limiter unavailable", "error", err)
			return c.Next()
		}

		if count == 1 {
			rl.rdb.Expire(ctx, key, time.Duration(rl.windowSec)*time.Second)
		}

		ttl, _ := rl.rdb.TTL(ctx, key).Result()

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.maxReqs))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, int64(rl.maxReqs)-count)))
		c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", int(ttl.Seconds())))

		if int(count) > rl.maxReqs {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": int(ttl.Seconds()),
			})
		}

		return c.Next()
	}
}
