// Package entity defines the core domain entities for the ingestion worker:
// financial news articles, their thumbnails, and the tickers they relate to.
package entity

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Article source tags. Yahoo search results and RSS alternate-source items
// share one article shape; Source records which pipeline produced the row.
const (
	SourceYahoo = "yahoo"
	SourceRSS   = "rss"
)

// Thumbnail is a single resolution entry attached to an article.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tag    string `json:"tag"`
}

// Article is a financial news article flowing through the pipeline.
// UUID is the stable identifier assigned by the upstream source and is the
// dedup key; an article is persisted at most once and never updated in place.
// The JSON keys follow the upstream news payload so the article can be
// posted to the delivery endpoint as-is.
type Article struct {
	UUID           string      `json:"uuid"`
	Source         string      `json:"source"`
	Title          string      `json:"title"`
	Publisher      string      `json:"publisher"`
	Link           string      `json:"link"`
	PublishTime    int64       `json:"providerPublishTime"` // unix seconds
	Type           string      `json:"type"`
	RelatedTickers []string    `json:"relatedTickers"`
	Thumbnails     []Thumbnail `json:"thumbnail"`
	Summary        string      `json:"summary"`
	Body           string      `json:"body"`
}

// PublishedAt returns the provider publish time as a time.Time.
func (a *Article) PublishedAt() time.Time {
	return time.Unix(a.PublishTime, 0)
}

// HasContent reports whether enrichment produced a summary or body.
// Only articles with content get a news_sentiment row.
func (a *Article) HasContent() bool {
	return a.Summary != "" || a.Body != ""
}

// Ticker is one entry of the ticker directory: an upper-case symbol and the
// company display name. The directory set is replaced wholesale on refresh.
type Ticker struct {
	Symbol string
	Name   string
}

// NewRowID returns a 16-character identifier for generated table rows
// (thumbnail_id, related_tickers.id, stock_id).
func NewRowID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
