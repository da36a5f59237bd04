package app

import (
	"os"
	"strconv"
	"time"

	"github.com/techfolio/authd/pkg/jwtx"
)

type Config struct {
	Issuer string // Required: issuer claim for tokens

	Algorithm      string // Optional: JWT signing algorithm (HS256, EdDSA) (default: HS256)
	HS256SecretEnv string // HS256 shared secret, read from AUTHD_HS256_SECRET
	SigningKeyPath string // Optional: path to PKCS8 Ed25519 key PEM (EdDSA only)

	TokenTTL      time.Duration // Access token lifetime (default: 30m)
	MaxRefreshAge time.Duration // Optional: oldest issue time still refreshable (0 = no limit)

	DatabaseFile string // Path to SQLite database file (default: ./authd.db)

	RedisAddr     string        // Optional: enables the shared permission cache
	RedisPassword string        // Optional
	RedisDB       int           // Optional
	CacheTTL      time.Duration // Permission cache TTL; 0 disables caching (default: 0)

	AuditRetention       time.Duration // How long audit events are kept (default: 90 days)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("AUTHD_ISSUER", "techfolio-auth"),
		Algorithm:      getEnvOrDefault("AUTHD_ALGORITHM", "HS256"),
		HS256SecretEnv: os.Getenv("AUTHD_HS256_SECRET"),
		SigningKeyPath: os.Getenv("AUTHD_SIGNING_KEY_FILE"),

		TokenTTL:      getEnvDurationOrDefault("AUTHD_TOKEN_TTL", jwtx.DefaultTokenTTL),
		MaxRefreshAge: getEnvDurationOrDefault("AUTHD_MAX_REFRESH_AGE", 0),

		DatabaseFile: getEnvOrDefault("AUTHD_DATABASE_FILE", "authd.db"),

		RedisAddr:     os.Getenv("AUTHD_REDIS_ADDR"),
		RedisPassword: os.Getenv("AUTHD_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("AUTHD_REDIS_DB", 0),
		CacheTTL:      getEnvDurationOrDefault("AUTHD_CACHE_TTL", 0),

		AuditRetention:       getEnvDurationOrDefault("AUTHD_AUDIT_RETENTION", 90*24*time.Hour),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
