package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/telemetry"
)

const (
	// tickerChunkSize bounds the fan-out: one in-flight fetch per ticker
	// inside a chunk, chunks processed sequentially.
	tickerChunkSize = 10

	defaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

// ProxyFetcher is the proxy-with-fallback client the scraper fetches
// through. ResetErrorCount is called between tickers so one bad run does
// not permanently disable the proxy path.
type ProxyFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	ResetErrorCount()
}

// SeenChecker answers whether an article uuid has already been ingested.
type SeenChecker interface {
	AlreadySeen(uuid string) bool
}

// YahooScraper fans out search queries per ticker, validates the returned
// news records into Articles and enriches them with extracted HTML.
type YahooScraper struct {
	proxy     ProxyFetcher
	extractor *Extractor
	seen      SeenChecker
	limiter   *rate.Limiter
	recorder  *telemetry.Recorder
	searchURL string
}

// NewYahooScraper creates a YahooScraper. limiter bounds the outbound
// request rate across all tickers; seen and recorder may be nil.
func NewYahooScraper(proxy ProxyFetcher, extractor *Extractor, seen SeenChecker, limiter *rate.Limiter, recorder *telemetry.Recorder) *YahooScraper {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &YahooScraper{
		proxy:     proxy,
		extractor: extractor,
		seen:      seen,
		limiter:   limiter,
		recorder:  recorder,
		searchURL: defaultSearchURL,
	}
}

// SetSearchURL overrides the search endpoint. Test hook.
func (s *YahooScraper) SetSearchURL(u string) { s.searchURL = u }

// Scrape queries the news search endpoint for every ticker and returns
// the flattened article list. Tickers are processed in chunks of ten with
// one concurrent fetch per ticker; within the result, per-ticker order
// follows the source and cross-ticker order follows the input slice.
func (s *YahooScraper) Scrape(ctx context.Context, tickers []string) ([]*entity.Article, error) {
	if len(tickers) == 0 {
		return []*entity.Article{}, nil
	}

	results := make([][]*entity.Article, len(tickers))
	for start := 0; start < len(tickers); start += tickerChunkSize {
		end := start + tickerChunkSize
		if end > len(tickers) {
			end = len(tickers)
		}

		eg, egCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			idx, symbol := i, tickers[i]
			eg.Go(func() error {
				articles, err := s.fetchForTicker(egCtx, symbol)
				if err != nil {
					return err
				}
				results[idx] = articles
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("scrape chunk: %w", err)
		}
	}

	var flattened []*entity.Article
	for _, part := range results {
		flattened = append(flattened, part...)
	}
	if flattened == nil {
		flattened = []*entity.Article{}
	}
	return flattened, nil
}

// newsRecord mirrors one entry of the search response. thumbnail and
// relatedTickers arrive in more than one shape, so they stay untyped
// until normalization.
type newsRecord struct {
	UUID                string `json:"uuid"`
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
	Type                string `json:"type"`
	Thumbnail           any    `json:"thumbnail"`
	RelatedTickers      any    `json:"relatedTickers"`
}

type searchResponse struct {
	News []newsRecord `json:"news"`
}

// fetchForTicker queries the search endpoint for one symbol and turns the
// news records into enriched Articles. Validation failures and parse
// failures drop the record or its enrichment, never the whole run.
func (s *YahooScraper) fetchForTicker(ctx context.Context, symbol string) ([]*entity.Article, error) {
	start := time.Now()
	defer func() {
		if s.recorder != nil {
			s.recorder.Record("fetch_for_ticker", time.Since(start))
		}
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := s.proxy.Fetch(ctx, fmt.Sprintf("%s?q=%s", s.searchURL, url.QueryEscape(symbol)))
	if err != nil {
		return nil, err
	}
	if body == "" {
		return []*entity.Article{}, nil
	}

	var response searchResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		if s.recorder != nil {
			s.recorder.RecordError("fetch_for_ticker", "parse")
		}
		slog.Warn("search response is not valid JSON",
			slog.String("ticker", symbol), slog.Any("error", err))
		return []*entity.Article{}, nil
	}

	s.proxy.ResetErrorCount()

	articles := make([]*entity.Article, 0, len(response.News))
	for _, record := range response.News {
		article := &entity.Article{
			UUID:           record.UUID,
			Source:         entity.SourceYahoo,
			Title:          record.Title,
			Publisher:      record.Publisher,
			Link:           record.Link,
			PublishTime:    record.ProviderPublishTime,
			Type:           record.Type,
			RelatedTickers: entity.ParseRelatedTickers(record.RelatedTickers),
			Thumbnails:     entity.ParseThumbnails(record.Thumbnail),
		}
		if err := article.Validate(); err != nil {
			if s.recorder != nil {
				s.recorder.RecordError("fetch_for_ticker", telemetry.Kind(err))
			}
			slog.Warn("dropping invalid news record",
				slog.String("ticker", symbol), slog.Any("error", err))
			continue
		}
		if s.seen != nil && s.seen.AlreadySeen(article.UUID) {
			continue
		}

		s.enrich(ctx, article)
		articles = append(articles, article)
	}
	return articles, nil
}

// enrich fetches the article page and fills summary and body from the
// extracted HTML. Transport and parse failures leave the article as-is.
func (s *YahooScraper) enrich(ctx context.Context, article *entity.Article) {
	if s.extractor == nil {
		return
	}
	html, err := s.proxy.Fetch(ctx, article.Link)
	if err != nil || html == "" {
		return
	}
	extract, err := s.extractor.Extract(ctx, html, article.Link)
	if err != nil {
		slog.Debug("article html did not parse", slog.String("link", article.Link))
		return
	}
	article.Summary = extract.Summary
	article.Body = extract.Body
}
