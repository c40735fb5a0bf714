package middleware

import (
	"log/slog"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/gofiber/fiber/v2"
)

// ContextMiddleware copies the request and trace ids from Fiber locals into
// the request context so the context-aware logger picks them up.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = observability.WithRequestID(ctx, rid)
		}
		if tid, ok := c.Locals("traceID").(string); ok && tid != "" {
			ctx = observability.WithTraceID(ctx, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one line per request with slog.
func StructuredLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			logger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			logger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return err
	}
}
