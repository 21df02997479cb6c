package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DBDSN           string
	BaseURL         string // used for returning absolute short/manage URLs; derived per request when empty
	StaticDir       string
	CreateRateRPS   float64
	CreateRateBurst int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	// Missing .env is fine; plain env vars still apply
	_ = godotenv.Load()

	return Config{
		Port:            getint("PORT", 8080),
		DBDSN:           getenv("DB_DSN", "file:qrblink.db?_foreign_keys=on"),
		BaseURL:         getenv("BASE_URL", ""),
		StaticDir:       getenv("STATIC_DIR", "web"),
		CreateRateRPS:   getfloat("CREATE_RATE_RPS", 2.0),
		CreateRateBurst: getint("CREATE_RATE_BURST", 5),
	}
}
