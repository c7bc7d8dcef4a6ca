// Package config provides environment-driven configuration for GhorBari.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	MetricsPort string
	CORSOrigins []string
	LogLevel    string
	JWTSecret   Secret
	RedisURL    string

	AuditQueueSize     int
	AuditRetentionDays int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "8080"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		JWTSecret:   Secret(envOrDefault("JWT_SECRET", "")),
		RedisURL:    envOrDefault("REDIS_URL", ""),
	}

	queueSize, err := strconv.Atoi(envOrDefault("AUDIT_QUEUE_SIZE", "1024"))
	if err != nil || queueSize < 16 || queueSize > 65536 {
		return nil, fmt.Errorf("AUDIT_QUEUE_SIZE must be an integer between 16 and 65536")
	}
	cfg.AuditQueueSize = queueSize

	retention, err := strconv.Atoi(envOrDefault("AUDIT_RETENTION_DAYS", "90"))
	if err != nil || retention < 1 {
		return nil, fmt.Errorf("AUDIT_RETENTION_DAYS must be a positive integer")
	}
	cfg.AuditRetentionDays = retention

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
