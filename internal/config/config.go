// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the server settings read from the environment.
type Config struct {
	Addr         string
	AssetsDir    string
	DefaultTheme string
	// ThemePaths is the raw ASSET_THEMES value, "name=/base/path/,...".
	ThemePaths   string

	RedisAddr string
	RedisDB   int
	FeedQueue string

	// MaxTables bounds the number of tables held in memory.
	MaxTables        int
	// TableIdleTimeout is how long a table without connections survives unused.
	TableIdleTimeout time.Duration

	// TokenExpiry is 0 when session tokens never expire.
	TokenExpiry time.Duration
	LogLevel    logrus.Level
}

// Load reads the configuration from environment variables:
//   - PORT (default 8080)
//   - ASSETS_DIR (default "./pictures")
//   - DEFAULT_THEME (default "classic")
//   - ASSET_THEMES (optional extra themes)
//   - REDIS_ADDR (optional; empty disables the round feed)
//   - REDIS_DB (default 0)
//   - FEED_QUEUE_NAME (default "fourcard_rounds")
//   - MAX_TABLES (default 10000)
//   - TABLE_IDLE_TIMEOUT (Go duration, default 30m)
//   - TOKEN_EXPIRE_TIME (Go duration, "never" or "0" for no expiry)
//   - LOG_LEVEL (default "info")
func Load() Config {
	cfg := Config{
		Addr:             ":" + getEnv("PORT", "8080"),
		AssetsDir:        getEnv("ASSETS_DIR", "./pictures"),
		DefaultTheme:     getEnv("DEFAULT_THEME", "classic"),
		ThemePaths:       os.Getenv("ASSET_THEMES"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		FeedQueue:        getEnv("FEED_QUEUE_NAME", "fourcard_rounds"),
		MaxTables:        getEnvInt("MAX_TABLES", 10000),
		TableIdleTimeout: getEnvDuration("TABLE_IDLE_TIMEOUT", 30*time.Minute),
		TokenExpiry:      parseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME")),
		LogLevel:         logrus.InfoLevel,
	}
	if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		cfg.LogLevel = lvl
	}
	return cfg
}

// parseTokenExpireTime maps "never", "0" or "" to no expiry; malformed durations also fall back to no expiry.
func parseTokenExpireTime(s string) time.Duration {
	if s == "never" || s == "0" || s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		logrus.Warnf("failed to parse TOKEN_EXPIRE_TIME %q, tokens will not expire", s)
		return 0
	}
	return d
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration parses an environment variable as a positive Go duration, else a default value.
func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
