package fetcher

import (
	"fmt"
	"time"

	"tech-newsletter/pkg/config"
)

// Config holds settings for article content retrieval.
type Config struct {
	// Timeout bounds one HTTP request including body read.
	Timeout time.Duration

	// MaxBodySize is the largest accepted response body in bytes.
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed before giving up.
	MaxRedirects int

	// DenyPrivateIPs rejects hosts resolving to loopback, private or link-local addresses.
	DenyPrivateIPs bool

	// UserAgent identifies the fetcher to article hosts.
	UserAgent string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "TechNewsletterBot/1.0",
	}
}

// Validate checks the configuration and returns an error if invalid.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	return nil
}

// LoadConfigFromEnv overlays CONTENT_FETCH_* environment variables on DefaultConfig.
//
// Environment variables:
//   - CONTENT_FETCH_TIMEOUT (default: 10s)
//   - CONTENT_FETCH_MAX_BODY_SIZE in bytes (default: 10485760)
//   - CONTENT_FETCH_MAX_REDIRECTS (default: 5)
//   - CONTENT_FETCH_DENY_PRIVATE_IPS (default: true)
func LoadConfigFromEnv() (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		Timeout:        config.GetEnvDuration("CONTENT_FETCH_TIMEOUT", def.Timeout),
		MaxBodySize:    int64(config.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize))),
		MaxRedirects:   config.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects),
		DenyPrivateIPs: config.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
		UserAgent:      def.UserAgent,
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
