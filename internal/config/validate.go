package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return c.validateRedis()
}

// localDBHosts are hosts allowed to connect without TLS.
var localDBHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

func (c *Config) validateDatabase() error {
	raw := c.DatabaseURL.Value()
	if raw == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	host := dbURL.Hostname()
	if host == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	if !localDBHosts[host] && dbURL.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", host)
	}

	return nil
}

// portInRange parses a port env var and bounds-checks it.
func portInRange(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535", name)
	}

	return port, nil
}

func (c *Config) validateNetwork() error {
	port, err := portInRange("PORT", c.Port)
	if err != nil {
		return err
	}

	// LISTEN_HOST is restricted to loopback for local runs and 0.0.0.0/::
	// for containers, where the network boundary lives outside the process.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	metricsPort, err := portInRange("METRICS_PORT", c.MetricsPort)
	if err != nil {
		return err
	}

	if metricsPort == port {
		return fmt.Errorf("METRICS_PORT must differ from PORT")
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateAuth() error {
	secret := c.JWTSecret.Value()
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(secret))
	}

	return nil
}

func (c *Config) validateRedis() error {
	if c.RedisURL == "" {
		return nil // cache is optional
	}

	u, err := url.Parse(c.RedisURL)
	if err != nil {
		return fmt.Errorf("REDIS_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return fmt.Errorf("REDIS_URL scheme must be redis:// or rediss://")
	}

	return nil
}
