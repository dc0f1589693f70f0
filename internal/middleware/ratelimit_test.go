package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(rdb *redis.Client, policy FailPolicy) *fiber.App {
	app := fiber.New()
	app.Post("/login", RateLimitWithPolicy(rdb, "production", 2, time.Minute, policy, "login"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	app := newLimitedApp(rdb, FailOpen)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		_ = resp.Body.Close()
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "rl:login:ip:")
}

func TestRateLimit_DisabledOutsideProduction(t *testing.T) {
	for _, env := range []string{"", "test", "development"} {
		allowed, err := CheckRateLimit(t.Context(), nil, env, "login", "ip:1", 0, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, env)
	}
}

func TestRateLimit_IgnoresProcessEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	allowed, err := CheckRateLimit(t.Context(), rdb, "production", "login", "ip:1", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, mr.Exists("rl:login:ip:1"))
}

func TestRateLimit_FailPolicies(t *testing.T) {
	resp, err := newLimitedApp(nil, FailOpen).Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = newLimitedApp(nil, FailClosed).Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
