package fetcher

import (
	"fmt"
	"time"

	"github.com/MJ-API-Development/NewsAPI/pkg/config"
)

// ContentFetchConfig controls the full-text enrichment fetcher used for
// feed articles whose description is too short to store on its own.
type ContentFetchConfig struct {
	// Enabled toggles enrichment without a redeploy.
	Enabled bool

	// Threshold is the summary length (characters) above which the feed
	// content is considered sufficient and no fetch happens.
	Threshold int

	// Timeout bounds one enrichment request.
	Timeout time.Duration

	// MaxBodySize caps the response body in bytes.
	MaxBodySize int64

	// MaxRedirects caps redirect hops; every hop is re-validated.
	MaxRedirects int

	// DenyPrivateIPs rejects hostnames resolving into private address
	// space. Feed links are external input, so this stays on outside
	// tests.
	DenyPrivateIPs bool
}

// DefaultConfig returns production defaults for content enrichment.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Enabled:        true,
		Threshold:      1500,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate rejects configurations that would be unsafe to run with.
func (c *ContentFetchConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size out of range: %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects out of range: %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads CONTENT_FETCH_* variables over the defaults and
// validates the result.
func LoadConfigFromEnv() (ContentFetchConfig, error) {
	cfg := DefaultConfig()
	cfg.Enabled = config.GetEnvBool("CONTENT_FETCH_ENABLED", cfg.Enabled)
	cfg.Threshold = config.GetEnvInt("CONTENT_FETCH_THRESHOLD", cfg.Threshold)
	cfg.Timeout = config.GetEnvDuration("CONTENT_FETCH_TIMEOUT", cfg.Timeout)
	cfg.MaxBodySize = int64(config.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize)))
	cfg.MaxRedirects = config.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", cfg.MaxRedirects)
	cfg.DenyPrivateIPs = config.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("content fetch configuration: %w", err)
	}
	return cfg, nil
}
