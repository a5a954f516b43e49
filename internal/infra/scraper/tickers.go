package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
)

// DefaultDirectoryCadence caps how often the most-active page is scraped;
// the rest of the system consumes the last-known snapshot.
const DefaultDirectoryCadence = 3 * time.Hour

// ExchangeLister is the fallback ticker source: the exchange API that
// serves full stock listings per exchange code.
type ExchangeLister interface {
	ListStocks(ctx context.Context, exchangeCode string) ([]entity.Ticker, error)
}

// Directory maintains the symbol to display-name snapshot of trending
// tickers. The set is replaced wholesale on each successful refresh; a
// transient failure keeps the previous snapshot.
type Directory struct {
	pages    PageFetcher
	pageURL  string
	cadence  time.Duration
	fallback ExchangeLister

	mu        sync.Mutex
	tickers   []entity.Ticker
	lastFetch time.Time
}

// NewDirectory creates a Directory scraping pageURL at most once per
// cadence. fallback may be nil.
func NewDirectory(pages PageFetcher, pageURL string, cadence time.Duration, fallback ExchangeLister) *Directory {
	if cadence <= 0 {
		cadence = DefaultDirectoryCadence
	}
	return &Directory{pages: pages, pageURL: pageURL, cadence: cadence, fallback: fallback}
}

// Tickers returns the current snapshot in page order, refreshing it first
// when the cadence has elapsed.
func (d *Directory) Tickers(ctx context.Context) []entity.Ticker {
	d.mu.Lock()
	stale := time.Since(d.lastFetch) >= d.cadence || d.lastFetch.IsZero()
	d.mu.Unlock()
	if stale {
		d.Refresh(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]entity.Ticker, len(d.tickers))
	copy(out, d.tickers)
	return out
}

// Mapping returns the snapshot as a symbol to display-name map.
func (d *Directory) Mapping(ctx context.Context) map[string]string {
	out := make(map[string]string)
	for _, t := range d.Tickers(ctx) {
		out[t.Symbol] = t.Name
	}
	return out
}

// Refresh scrapes the most-active page now, replacing the snapshot when
// the scrape yields anything. An empty result falls through to the
// exchange listing, then to the previous snapshot.
func (d *Directory) Refresh(ctx context.Context) {
	tickers := d.scrapePage(ctx)
	if len(tickers) == 0 && d.fallback != nil {
		stocks, err := d.fallback.ListStocks(ctx, "US")
		if err != nil {
			slog.Warn("exchange ticker fallback failed", slog.Any("error", err))
		} else {
			tickers = stocks
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastFetch = time.Now()
	if len(tickers) == 0 {
		slog.Warn("ticker refresh yielded nothing, keeping previous snapshot",
			slog.Int("previous", len(d.tickers)))
		return
	}
	d.tickers = tickers
	slog.Info("ticker directory refreshed", slog.Int("tickers", len(tickers)))
}

func (d *Directory) scrapePage(ctx context.Context) []entity.Ticker {
	body, err := d.pages.Fetch(ctx, d.pageURL)
	if err != nil || body == "" {
		return nil
	}
	return parseTickerTable(body)
}

// parseTickerTable reads the first <tbody> of the most-active listing:
// per row, the first cell is the symbol and the second the display name.
func parseTickerTable(html string) []entity.Ticker {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var tickers []entity.Ticker
	doc.Find("tbody").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		symbol := strings.ToUpper(strings.TrimSpace(cells.Eq(0).Text()))
		name := strings.TrimSpace(cells.Eq(1).Text())
		if symbol == "" {
			return
		}
		tickers = append(tickers, entity.Ticker{Symbol: symbol, Name: name})
	})
	return tickers
}

// ExchangeClient fetches stock listings from the exchange API. It backs
// the ticker directory when the most-active page is unavailable.
type ExchangeClient struct {
	client       *http.Client
	exchangesURL string
	stocksURL    string
	apiKey       string
}

// NewExchangeClient creates an ExchangeClient against the configured
// endpoints. stocksURL is the per-exchange listing endpoint; the exchange
// code is appended as a path segment.
func NewExchangeClient(client *http.Client, exchangesURL, stocksURL, apiKey string) *ExchangeClient {
	return &ExchangeClient{client: client, exchangesURL: exchangesURL, stocksURL: stocksURL, apiKey: apiKey}
}

type exchangePayload struct {
	Status  bool `json:"status"`
	Payload []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"payload"`
}

// ListStocks returns the tickers listed on the given exchange.
func (c *ExchangeClient) ListStocks(ctx context.Context, exchangeCode string) ([]entity.Ticker, error) {
	url := fmt.Sprintf("%s/%s?api_key=%s", strings.TrimRight(c.stocksURL, "/"), exchangeCode, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange stocks request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange stocks request: status %d", resp.StatusCode)
	}

	var payload exchangePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode exchange payload: %w", err)
	}
	if !payload.Status {
		return nil, nil
	}

	tickers := make([]entity.Ticker, 0, len(payload.Payload))
	for _, s := range payload.Payload {
		symbol := strings.ToUpper(strings.TrimSpace(s.Code))
		if symbol == "" {
			continue
		}
		tickers = append(tickers, entity.Ticker{Symbol: symbol, Name: strings.TrimSpace(s.Name)})
	}
	return tickers, nil
}
