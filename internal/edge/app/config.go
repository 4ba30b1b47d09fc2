package app

import (
	"os"
	"strconv"
	"time"
)

const (
	TokenModeDecode = "decode" // trust token claims without a signature check
	TokenModeVerify = "verify" // verify signatures against the API's JWKS
)

type Config struct {
	APIURL      string // Banking API base URL (default: https://api.otsembank.com)
	FrontendURL string // Optional: page renderer to proxy to; unset serves JSON page stubs

	TokenMode       string        // Optional: decode or verify (default: decode)
	JWKSURL         string        // Optional: JWKS location in verify mode (default: {APIURL}/.well-known/jwks.json)
	Issuer          string        // Optional: expected iss claim in verify mode
	KeySyncInterval time.Duration // Optional: JWKS refresh interval (default: 10m)
	HealthInterval  time.Duration // Optional: upstream health poll interval (default: 30s)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 3000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		APIURL:              getEnvOrDefault("API_URL", "https://api.otsembank.com"),
		FrontendURL:         os.Getenv("FRONTEND_URL"),
		TokenMode:           getEnvOrDefault("EDGE_TOKEN_MODE", TokenModeDecode),
		JWKSURL:             os.Getenv("JWKS_URL"),
		Issuer:              os.Getenv("JWT_ISSUER"),
		KeySyncInterval:     getEnvDurationOrDefault("KEY_SYNC_INTERVAL", 10*time.Minute),
		HealthInterval:      getEnvDurationOrDefault("HEALTH_INTERVAL", 30*time.Second),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.TokenMode == TokenModeVerify && cfg.JWKSURL == "" {
		cfg.JWKSURL = cfg.APIURL + "/.well-known/jwks.json"
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

	// Bare integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
