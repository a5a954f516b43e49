// Package config loads the application-level settings the worker cannot
// run without: the database DSN, the upstream credentials, and the proxy
// and delivery endpoints. Unlike the fail-open worker configuration,
// missing values here abort startup.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MJ-API-Development/NewsAPI/pkg/config"
)

// Config holds process-wide settings sourced from the environment.
type Config struct {
	// SQLDBURL is the Postgres DSN of the news store.
	SQLDBURL string

	// APIKey, SecretToken and RapidAPIProxySecret authenticate article
	// posts against the cron delivery endpoint.
	APIKey              string
	SecretToken         string
	RapidAPIProxySecret string

	// CronEndpoint is the base URL of the delivery API.
	CronEndpoint string

	// RSSFeedURIs are the alternate-source feeds, comma-separated in the
	// environment.
	RSSFeedURIs []string

	// ExchangesEndpoint and ExchangeStockEndpoint are the EOD stock API
	// URLs backing the exchange ticker fallback; EODStockAPIKey signs
	// those requests.
	ExchangesEndpoint     string
	ExchangeStockEndpoint string
	EODStockAPIKey        string

	// MemeTickersURI is the most-active-tickers page the directory
	// scrapes.
	MemeTickersURI string

	// ProxyWorkerURL is the Cloudflare worker fronting outbound scrapes;
	// SecurityToken is sent as X-SECURITY-TOKEN on every proxied request.
	ProxyWorkerURL string
	SecurityToken  string

	// CloudflareZoneID, CloudflareAPIKey, CloudflareEmail and
	// CloudflareWorkerName manage the proxy worker deployment.
	CloudflareZoneID     string
	CloudflareAPIKey     string
	CloudflareEmail      string
	CloudflareWorkerName string

	// DevelopmentServerName switches logging to text output when it
	// matches the hostname.
	DevelopmentServerName string

	// TotalConnections caps the database connection pool.
	TotalConnections int

	// FailedArticlePath is where rejected articles are journaled.
	FailedArticlePath string
}

// Load reads the configuration from the environment. It returns an error
// naming every missing required variable, so operators can fix them all in
// one pass.
func Load() (*Config, error) {
	cfg := &Config{
		ProxyWorkerURL:        config.GetEnvString("PROXY_WORKER_URL", "https://proxy.eod-stock-api.site"),
		MemeTickersURI:        config.GetEnvString("MEME_TICKERS_URI", "https://finance.yahoo.com/most-active"),
		CloudflareWorkerName:  config.GetEnvString("CLOUDFLARE_WORKER_NAME", "proxytask"),
		DevelopmentServerName: config.GetEnvString("DEVELOPMENT_SERVER_NAME", ""),
		TotalConnections:      config.GetEnvInt("TOTAL_CONNECTIONS", 1000),
		FailedArticlePath:     config.GetEnvString("FAILED_ARTICLE_PATH", "failed_articles.jsonl"),
	}

	required := map[string]*string{
		"SQL_DB_URL":              &cfg.SQLDBURL,
		"X_API_KEY":               &cfg.APIKey,
		"X_SECRET_TOKEN":          &cfg.SecretToken,
		"X_RAPID_KEY":             &cfg.RapidAPIProxySecret,
		"CRON_ENDPOINT":           &cfg.CronEndpoint,
		"EXCHANGES_ENDPOINT":      &cfg.ExchangesEndpoint,
		"EXCHANGE_STOCK_ENDPOINT": &cfg.ExchangeStockEndpoint,
		"EOD_STOCK_API_KEY":       &cfg.EODStockAPIKey,
		"CLOUDFLARE_ZONE_ID":      &cfg.CloudflareZoneID,
		"CLOUD_FLARE_API_KEY":     &cfg.CloudflareAPIKey,
		"CLOUD_FLARE_EMAIL":       &cfg.CloudflareEmail,
		"SECURITY_TOKEN":          &cfg.SecurityToken,
	}

	var missing []string
	for key, dest := range required {
		value := config.GetEnvString(key, "")
		if value == "" {
			missing = append(missing, key)
			continue
		}
		*dest = value
	}

	cfg.RSSFeedURIs = config.GetEnvStringList("RSS_FEED_URI", nil)
	if len(cfg.RSSFeedURIs) == 0 {
		missing = append(missing, "RSS_FEED_URI")
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
