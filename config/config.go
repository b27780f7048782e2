// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPAddr    string

	// SigningSecret signs session tokens. Its absence is a fatal
	// startup condition; Load refuses to return a config without it.
	SigningSecret []byte

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LoginRateWindow time.Duration
	LoginRateMax    int
	APIRateWindow   time.Duration
	APIRateMax      int

	ArgonTime       uint32
	ArgonMemoryKB   uint32
	ArgonThreads    uint8
	HashConcurrency int64

	CookieSecure bool

	// RedisURL is optional; without it the watermark store and event
	// publisher run in-process, which is only suitable for a single
	// node.
	RedisURL string

	// AdminEmail and AdminPassword seed the built-in credential store
	// used when no external user store is wired in. The standalone
	// binary refuses to start without them.
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from environment variables with sane
// defaults for everything except the signing secret.
func Load() (Config, error) {
	_ = godotenv.Load()

	secret := strings.TrimSpace(os.Getenv("SIGNING_SECRET"))
	if secret == "" {
		return Config{}, fmt.Errorf("SIGNING_SECRET is required")
	}
	if len(secret) < 32 {
		return Config{}, fmt.Errorf("SIGNING_SECRET must be at least 32 bytes")
	}

	environment := getEnv("APP_ENV", "development")

	cfg := Config{
		Environment:     environment,
		HTTPAddr:        getEnv("HTTP_ADDR", ":9000"),
		SigningSecret:   []byte(secret),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		LoginRateMax:    getInt("LOGIN_RATE_MAX", 5),
		APIRateWindow:   getDuration("API_RATE_WINDOW", time.Minute),
		APIRateMax:      getInt("API_RATE_MAX", 120),
		ArgonTime:       uint32(getInt("ARGON_TIME", 3)),
		ArgonMemoryKB:   uint32(getInt("ARGON_MEMORY_KB", 64*1024)),
		ArgonThreads:    uint8(getInt("ARGON_THREADS", 2)),
		HashConcurrency: int64(getInt("HASH_CONCURRENCY", 4)),
		CookieSecure:    getBool("COOKIE_SECURE", environment != "development"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AdminEmail:      strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
