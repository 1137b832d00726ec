package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv applies SEATWISE_* environment overrides.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("SEATWISE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if level := os.Getenv("SEATWISE_LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}
	if secret := os.Getenv("SEATWISE_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if ttl := os.Getenv("SEATWISE_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Auth.TokenTTL = Duration(d)
		}
	}
	if path := os.Getenv("SEATWISE_MODEL_PATH"); path != "" {
		cfg.Model.ArtifactPath = path
	}
	if backend := os.Getenv("SEATWISE_LOG_BACKEND"); backend != "" {
		cfg.Log.Backend = backend
	}
	if path := os.Getenv("SEATWISE_LOG_CSV_PATH"); path != "" {
		cfg.Log.CSVPath = path
	}
	if dsn := os.Getenv("SEATWISE_LOG_DSN"); dsn != "" {
		cfg.Log.DSN = dsn
	}
}

// GetEnvOrDefault returns environment variable or default value.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
