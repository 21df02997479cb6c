package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qrblink/qrblink/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "file:qrblink.db?_foreign_keys=on", cfg.DBDSN)
	assert.Equal(t, "web", cfg.StaticDir)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, 2.0, cfg.CreateRateRPS)
	assert.Equal(t, 5, cfg.CreateRateBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DSN", "file:other.db")
	t.Setenv("BASE_URL", "https://qrb.link")
	t.Setenv("STATIC_DIR", "/srv/web")
	t.Setenv("CREATE_RATE_RPS", "10.5")
	t.Setenv("CREATE_RATE_BURST", "20")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "file:other.db", cfg.DBDSN)
	assert.Equal(t, "https://qrb.link", cfg.BaseURL)
	assert.Equal(t, "/srv/web", cfg.StaticDir)
	assert.Equal(t, 10.5, cfg.CreateRateRPS)
	assert.Equal(t, 20, cfg.CreateRateBurst)
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("CREATE_RATE_RPS", "fast")

	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2.0, cfg.CreateRateRPS)
}
