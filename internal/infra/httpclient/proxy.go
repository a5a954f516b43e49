package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/MJ-API-Development/NewsAPI/internal/telemetry"
)

// Defaults for the proxy path. The 96 second timeout matches the worst
// case cold start of the edge worker plus the origin fetch it performs.
const (
	DefaultErrorThreshold = 60
	DefaultProxyTimeout   = 96 * time.Second

	cloudflareAPIBase = "https://api.cloudflare.com/client/v4"
)

// ProxyConfig configures the Cloudflare edge proxy path.
type ProxyConfig struct {
	// WorkerURL is the deployed edge worker acting as forward proxy.
	WorkerURL string
	// ZoneID and WorkerName identify the worker script in the
	// Cloudflare API, used for management calls only. APIEmail and
	// APIKey authenticate those calls.
	ZoneID     string
	WorkerName string
	APIEmail   string
	APIKey     string
	// SecurityToken is sent as X-SECURITY-TOKEN on every proxy request.
	SecurityToken string
	// ErrorThreshold is the rolling error count at which the client
	// stops routing through the worker and sends direct.
	ErrorThreshold int
	Timeout        time.Duration
	// OnFallback is invoked once per request that bypasses the worker.
	// May be nil.
	OnFallback func()
}

// ProxyClient fetches arbitrary URLs through the edge worker while its
// rolling error count stays below the threshold, then sends direct. Any
// transport failure increments the counter and yields an empty body; the
// caller treats an empty body as "nothing fetched" and moves on. The
// scraper resets the counter between tickers so one bad run does not
// permanently disable the proxy path.
type ProxyClient struct {
	fetcher    *Fetcher
	client     *http.Client
	cfg        ProxyConfig
	errorCount atomic.Int64
	recorder   *telemetry.Recorder
}

// NewProxyClient creates a ProxyClient around the given fetcher. The
// recorder may be nil to disable telemetry spans.
func NewProxyClient(fetcher *Fetcher, cfg ProxyConfig, recorder *telemetry.Recorder) *ProxyClient {
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = DefaultErrorThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProxyTimeout
	}
	return &ProxyClient{
		fetcher:  fetcher,
		client:   &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		recorder: recorder,
	}
}

// RequestEndpoint returns the Cloudflare API fetch endpoint for the
// configured worker script.
func (p *ProxyClient) RequestEndpoint() string {
	return fmt.Sprintf("%s/zones/%s/workers/scripts/%s/fetch", cloudflareAPIBase, p.cfg.ZoneID, p.cfg.WorkerName)
}

// ManagementRequest builds an authenticated GET against the worker's
// Cloudflare API fetch endpoint.
func (p *ProxyClient) ManagementRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.RequestEndpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("create management request: %w", err)
	}
	req.Header.Set("X-Auth-Email", p.cfg.APIEmail)
	req.Header.Set("X-Auth-Key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ErrorCount returns the current rolling error count.
func (p *ProxyClient) ErrorCount() int {
	return int(p.errorCount.Load())
}

// ResetErrorCount clears the rolling error count, re-enabling the proxy
// path. Invoked after each successful per-ticker fetch.
func (p *ProxyClient) ResetErrorCount() {
	p.errorCount.Store(0)
}

// Fetch retrieves targetURL, through the worker while the error count is
// below the threshold, through the plain fetcher otherwise. The direct
// path uses the fetcher's own shorter timeout and never carries the
// proxy credential. Transport failures never surface as errors: the
// counter is incremented and an empty body is returned. A non-nil error
// means the request could not even be built.
func (p *ProxyClient) Fetch(ctx context.Context, targetURL string) (string, error) {
	var body string
	fetch := func(ctx context.Context) error {
		if int(p.errorCount.Load()) >= p.cfg.ErrorThreshold {
			if p.cfg.OnFallback != nil {
				p.cfg.OnFallback()
			}
			text, err := p.fetcher.FetchText(ctx, targetURL)
			if err != nil {
				p.errorCount.Add(1)
				return nil
			}
			body = text
			return nil
		}

		requestURL := fmt.Sprintf("%s?url=%s&method=GET", p.cfg.WorkerURL, url.QueryEscape(targetURL))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header = p.fetcher.Headers()
		req.Header.Set("X-SECURITY-TOKEN", p.cfg.SecurityToken)

		resp, err := p.client.Do(req)
		if err != nil {
			p.errorCount.Add(1)
			return nil
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			p.errorCount.Add(1)
			return nil
		}

		text, err := readBody(resp)
		if err != nil {
			p.errorCount.Add(1)
			return nil
		}
		body = text
		return nil
	}

	var err error
	if p.recorder != nil {
		err = p.recorder.Do(ctx, "proxy_fetch", fetch)
	} else {
		err = fetch(ctx)
	}
	return body, err
}
