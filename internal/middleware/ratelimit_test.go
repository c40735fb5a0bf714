package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedApp(rdb *redis.Client, limit int) *fiber.App {
	app := fiber.New()
	app.Post("/login", RateLimit(rdb, observability.Discard(), limit, time.Minute, "login"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	allowed, err := CheckRateLimit(context.Background(), nil, "login", "ip:1", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	app := limitedApp(rdb, 2)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	mr.FastForward(2 * time.Minute)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "window expired")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	for _, app := range []*fiber.App{limitedApp(rdb, 1), limitedApp(nil, 1)} {
		for i := 0; i < 2; i++ {
			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}
}
