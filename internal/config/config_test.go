package config_test

import (
	"testing"
	"time"

	"github.com/sekai-set-on/web-portal/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "RESTAPI_URL", "REQUEST_TIMEOUT", "COALESCE_REFRESH",
		"MONTHLY_API_LIMIT", "PLAYGROUND_RATE_LIMIT", "REDIS_URL", "ALLOWED_ORIGINS", "COOKIE_HTTP_ONLY"} {
		t.Setenv(key, "")
	}

	c := config.New()

	require.Equal(t, ":3000", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8000", c.GetRestAPIURL())
	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.False(t, c.GetCoalesceRefresh())
	require.Equal(t, 10000, c.GetMonthlyAPILimit())
	require.Equal(t, 100, c.GetPlaygroundRateLimit())
	require.Empty(t, c.GetRedisURL())
	require.True(t, c.GetCookieHTTPOnly())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("*"))
}

func TestConfigOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("COALESCE_REFRESH", "true")
	t.Setenv("MONTHLY_API_LIMIT", "500")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c := config.New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, 3*time.Second, c.GetRequestTimeout())
	require.True(t, c.GetCoalesceRefresh())
	require.Equal(t, 500, c.GetMonthlyAPILimit())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("*"))
}

func TestConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("MONTHLY_API_LIMIT", "lots")

	c := config.New()

	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.Equal(t, 10000, c.GetMonthlyAPILimit())
}
