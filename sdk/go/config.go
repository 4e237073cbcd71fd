package linededup

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 10 * time.Second
)

// Config holds the SDK configuration.
type Config struct {
	// Endpoint is the linededup server URL (required, e.g., "http://localhost:8080")
	Endpoint string

	// MaxRetries is the maximum number of retry attempts on 5xx errors (default: 3)
	MaxRetries int

	// Timeout is the HTTP request timeout per attempt (default: 10s)
	Timeout time.Duration

	// HTTPClient replaces the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// validate checks that required fields are set and values are valid.
func (c *Config) validate() error {
	if c.Endpoint == "" {
		return errors.New("linededup: Endpoint is required")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("linededup: Endpoint must be an absolute URL")
	}

	if c.MaxRetries < 0 {
		return errors.New("linededup: MaxRetries must be non-negative")
	}

	if c.Timeout < 0 {
		return errors.New("linededup: Timeout must be non-negative")
	}

	return nil
}

// withDefaults returns a copy of the config with default values applied.
func (c Config) withDefaults() Config {
	cfg := c

	// Trim trailing slash from endpoint
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return cfg
}
