package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bookshelf/internal/platform/openlibrary"
)

type Config struct {
	Addr           string
	StoragePath    string
	LookupBaseURL  string
	UserAgent      string
	LookupTimeout  time.Duration
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	CORSOrigins    []string
	EnableHSTS     bool
	LogLevel       slog.Level

	// TrustProxyHeaders keys rate limiting by X-Forwarded-For.
	TrustProxyHeaders bool
}

// LoadEnvFiles reads .env and .env.local when present. Variables already set
// in the environment win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Addr:          getEnv("APP_ADDR", ":8080"),
		StoragePath:   getEnv("STORAGE_PATH", "library.json"),
		LookupBaseURL: getEnv("OPENLIBRARY_BASE_URL", openlibrary.DefaultBaseURL),
		UserAgent:     getEnv("OPENLIBRARY_USER_AGENT", openlibrary.DefaultUserAgent),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.LookupTimeout, err = durationEnv("LOOKUP_TIMEOUT", openlibrary.DefaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 40); err != nil {
		return Config{}, err
	}
	maxBody, err := intEnv("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)
	if cfg.EnableHSTS, err = boolEnv("ENABLE_HSTS", false); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxyHeaders, err = boolEnv("TRUST_PROXY_HEADERS", false); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.StoragePath == "" {
		return Config{}, fmt.Errorf("STORAGE_PATH must not be empty")
	}
	if cfg.LookupTimeout <= 0 {
		return Config{}, fmt.Errorf("LOOKUP_TIMEOUT must be positive")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return cfg, nil
}

// AuthEnabled reports whether catalog mutations require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
