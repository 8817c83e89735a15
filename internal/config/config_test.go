package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		Timezone:         "Europe/Istanbul",
		StaleDaysDefault: 7,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(c *Config){
		"boş secret":     func(c *Config) { c.JWTSecret = "" },
		"kısa secret":    func(c *Config) { c.JWTSecret = "kisa" },
		"geçersiz bölge": func(c *Config) { c.Timezone = "Mars/Olympus" },
		"sıfır gün":      func(c *Config) { c.StaleDaysDefault = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "Europe/Istanbul", c.Location().String())
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("STALE_TEST", "14")
	assert.Equal(t, 14, getEnvInt("STALE_TEST", 7))

	t.Setenv("STALE_TEST", "on-dört")
	assert.Equal(t, 7, getEnvInt("STALE_TEST", 7))

	assert.Equal(t, 3, getEnvInt("STALE_TEST_MISSING", 3))
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STALE_DAYS_DEFAULT", "3")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg := Load()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 3, cfg.StaleDaysDefault)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, "info", cfg.LogLevel)
}
