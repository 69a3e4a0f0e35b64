package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer         string // Required: issuer claim for access tokens
	Origin         string // Public base URL of the platform, used for the default redirect URI
	LoginURL       string // URL of the login page the authorize endpoint redirects to
	BootstrapToken string // Optional: token required to perform bootstrap

	NumKeys      int    // Optional: number of signing keys to generate (default: 3, min: 1, max: 10)
	DatabaseFile string // Optional: path to SQLite database file (default: ./sso.db)

	CodeTTL       time.Duration // Pending authorization lifetime (default: 10m)
	SessionTTL    time.Duration // Session lifetime (default: 24h)
	AccessTTL     time.Duration // Access token lifetime (default: 168h)
	SweepInterval time.Duration // Expired-state sweep interval (default: 10m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("SSO_ISSUER", "tutorhub-sso"),
		Origin:         getEnvOrDefault("SSO_ORIGIN", "http://localhost:8080"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),
		DatabaseFile:   getEnvOrDefault("SSO_DATABASE_FILE", "sso.db"),

		CodeTTL:       getEnvDurationOrDefault("SSO_CODE_TTL", 10*time.Minute),
		SessionTTL:    getEnvDurationOrDefault("SSO_SESSION_TTL", 24*time.Hour),
		AccessTTL:     getEnvDurationOrDefault("SSO_ACCESS_TTL", 7*24*time.Hour),
		SweepInterval: getEnvDurationOrDefault("SSO_SWEEP_INTERVAL", 10*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// The login page normally lives on the platform origin.
	cfg.LoginURL = getEnvOrDefault("SSO_LOGIN_URL", cfg.Origin+"/login")

	if numKeysStr := os.Getenv("SSO_NUM_KEYS"); numKeysStr != "" {
		if numKeys, err := strconv.Atoi(numKeysStr); err == nil {
			cfg.NumKeys = numKeys
		}
		// If parsing fails, NumKeys remains 0 (will use default in KeyManager)
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

	// Parse as duration (e.g., "10m", "24h", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Also accept bare integers as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
