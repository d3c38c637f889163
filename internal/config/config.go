// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port         string
	AppEnv       string
	LogLevel     string
	WriteTimeout time.Duration

	DatabaseURL   string
	RunMigrations bool

	// JWTSecret signs HMAC tokens. When JWKSURL is set tokens are verified
	// against the remote key set instead.
	JWTSecret string
	JWKSURL   string

	// Redis is optional; an empty RedisAddr disables the shared cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ImageCacheTTL time.Duration

	UploadDir         string
	UploadMaxBytes    int64
	MainWidth         int
	MainHeight        int
	ThumbWidth        int
	ThumbHeight       int
	JPEGQuality       int
	ImageCacheEntries int

	// OrphanSweepInterval of zero disables the sweeper.
	OrphanSweepInterval time.Duration
	OrphanGracePeriod   time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading from environment")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWKSURL:   getEnv("JWKS_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		ImageCacheTTL: getEnvDuration("IMAGE_CACHE_TTL", time.Hour),

		UploadDir:         getEnv("UPLOAD_DIR", "uploads/produtos"),
		UploadMaxBytes:    int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		MainWidth:         getEnvInt("IMAGE_MAX_WIDTH", 1024),
		MainHeight:        getEnvInt("IMAGE_MAX_HEIGHT", 1024),
		ThumbWidth:        getEnvInt("THUMB_WIDTH", 200),
		ThumbHeight:       getEnvInt("THUMB_HEIGHT", 200),
		JPEGQuality:       getEnvInt("JPEG_QUALITY", 90),
		ImageCacheEntries: getEnvInt("IMAGE_CACHE_ENTRIES", 256),

		OrphanSweepInterval: getEnvDuration("ORPHAN_SWEEP_INTERVAL", time.Hour),
		OrphanGracePeriod:   getEnvDuration("ORPHAN_GRACE_PERIOD", time.Hour),
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}

// getEnvDuration accepts Go durations ("90s", "1h") and "0" to disable.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}
