package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// CheckRateLimit counts a hit for resource/id and reports whether it is
// within limit for the current window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errors.New("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit enforces limit requests per window per client IP. When Redis is
// missing or failing the request is let through.
func RateLimit(rdb *redis.Client, logger *slog.Logger, limit int, window time.Duration, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, "ip:"+c.IP(), limit, window)
		if err != nil {
			logger.WarnContext(c.UserContext(), "rate limit unavailable",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many attempts, please try again later.",
			})
		}
		return c.Next()
	}
}
