// Package repository defines the persistence interfaces consumed by the
// ingestion use cases. Implementations live under internal/infra/adapter.
package repository

import (
	"context"
)

// NewsRow is one row of the news table. Empty Title/Publisher/Summary
// strings are persisted as NULL by the adapter.
type NewsRow struct {
	UUID                string
	Title               string
	Publisher           string
	Link                string
	ProviderPublishTime int64
	CreatedAt           int64
	Type                string
}

// ThumbnailRow is one row of the thumbnail table, keyed by a generated id
// and referencing its parent article by uuid.
type ThumbnailRow struct {
	ThumbnailID string
	UUID        string
	URL         string
	Width       int
	Height      int
	Tag         string
}

// RelatedTickerRow links an article to one ticker symbol.
type RelatedTickerRow struct {
	ID      string
	UUID    string
	Ticker  string
	StockID string
}

// SentimentRow is one row of the news_sentiment table. The sentiment_*
// columns are left NULL by ingestion; a downstream process fills them.
type SentimentRow struct {
	ArticleUUID string
	StockCodes  string
	Title       string
	Link        string
	Article     string
	ArticleTLDR string
}

// SaveResult reports how a per-row batch insert went. Failed counts rows
// rejected by the database (duplicate keys, schema violations); those never
// abort the rest of the batch.
type SaveResult struct {
	Saved  int
	Failed int
}

// Total returns the number of rows attempted.
func (r SaveResult) Total() int { return r.Saved + r.Failed }

// NewsRepository persists the four article tables. Each Save* call inserts
// its rows one by one, isolating row errors; the returned error is non-nil
// only when the database itself is unreachable.
type NewsRepository interface {
	SaveNews(ctx context.Context, rows []NewsRow) (SaveResult, error)
	SaveThumbnails(ctx context.Context, rows []ThumbnailRow) (SaveResult, error)
	SaveRelatedTickers(ctx context.Context, rows []RelatedTickerRow) (SaveResult, error)
	SaveSentiments(ctx context.Context, rows []SentimentRow) (SaveResult, error)

	// ExistingUUIDs reports which of the given article uuids are already
	// persisted. Used to warm the in-memory dedup set at startup.
	ExistingUUIDs(ctx context.Context, uuids []string) (map[string]bool, error)
}
