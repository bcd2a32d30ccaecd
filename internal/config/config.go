package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDatabaseURL   = "sqlite:yatube.db"
	DefaultAddr          = ":8000"
	DefaultMediaRoot     = "media"
	DefaultMediaURL      = "/media/"
	DefaultIndexCacheTTL = 20 * time.Second
)

// Config is read from the environment. Call godotenv.Load first to pick up
// a .env file.
type Config struct {
	DatabaseURL string
	Addr        string
	Debug       bool

	MediaRoot string
	MediaURL  string
	S3Bucket  string
	S3Region  string

	RedisURL      string
	IndexCacheTTL time.Duration

	SecretKey     string
	SecureCookies bool
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   getenv("DATABASE_URL", DefaultDatabaseURL),
		Addr:          getenv("ADDR", DefaultAddr),
		MediaRoot:     getenv("MEDIA_ROOT", DefaultMediaRoot),
		MediaURL:      getenv("MEDIA_URL", DefaultMediaURL),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      os.Getenv("S3_REGION"),
		RedisURL:      os.Getenv("REDIS_URL"),
		IndexCacheTTL: DefaultIndexCacheTTL,
		SecretKey:     os.Getenv("SECRET_KEY"),
	}

	// PORT is what most hosts set
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ADDR") == "" {
		cfg.Addr = ":" + port
	}

	var err error
	if cfg.Debug, err = getbool("DEBUG"); err != nil {
		return nil, err
	}
	if cfg.SecureCookies, err = getbool("SECURE_COOKIES"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("INDEX_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid INDEX_CACHE_TTL %q: %v", raw, err)
		}
		cfg.IndexCacheTTL = ttl
	}

	if cfg.SecretKey != "" && len(cfg.SecretKey) != 32 {
		return nil, fmt.Errorf("SECRET_KEY must be exactly 32 bytes, got %d", len(cfg.SecretKey))
	}

	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %v", key, raw, err)
	}
	return v, nil
}
