package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/repository"
)

// StoreDestination writes batches into the four news tables. The table
// writes run in parallel; row failures are counted by the repository and
// never become rejections, so nothing is re-queued on this path.
type StoreDestination struct {
	repo repository.NewsRepository
	now  func() time.Time
}

// NewStoreDestination creates a StoreDestination over repo.
func NewStoreDestination(repo repository.NewsRepository) *StoreDestination {
	return &StoreDestination{repo: repo, now: time.Now}
}

// Existing reports which of the given uuids are already persisted, so the
// sink can skip articles stored by a previous process.
func (d *StoreDestination) Existing(ctx context.Context, uuids []string) (map[string]bool, error) {
	return d.repo.ExistingUUIDs(ctx, uuids)
}

// Deliver persists one batch. Only a transport-level repository error
// aborts the batch; per-row rejections come back in the counts.
func (d *StoreDestination) Deliver(ctx context.Context, batch []*entity.Article) (DeliveryResult, error) {
	newsRows := make([]repository.NewsRow, 0, len(batch))
	var thumbRows []repository.ThumbnailRow
	var tickerRows []repository.RelatedTickerRow
	var sentimentRows []repository.SentimentRow

	createdAt := d.now().Unix()
	for _, article := range batch {
		newsRows = append(newsRows, repository.NewsRow{
			UUID:                article.UUID,
			Title:               article.Title,
			Publisher:           article.Publisher,
			Link:                article.Link,
			ProviderPublishTime: article.PublishTime,
			CreatedAt:           createdAt,
			Type:                article.Type,
		})
		for _, thumb := range article.Thumbnails {
			thumbRows = append(thumbRows, repository.ThumbnailRow{
				ThumbnailID: entity.NewRowID(),
				UUID:        article.UUID,
				URL:         thumb.URL,
				Width:       thumb.Width,
				Height:      thumb.Height,
				Tag:         thumb.Tag,
			})
		}
		for _, ticker := range article.RelatedTickers {
			tickerRows = append(tickerRows, repository.RelatedTickerRow{
				ID:     entity.NewRowID(),
				UUID:   article.UUID,
				Ticker: ticker,
			})
		}
		if article.HasContent() {
			sentimentRows = append(sentimentRows, repository.SentimentRow{
				ArticleUUID: article.UUID,
				StockCodes:  strings.Join(article.RelatedTickers, ","),
				Title:       article.Title,
				Link:        article.Link,
				Article:     article.Body,
				ArticleTLDR: article.Summary,
			})
		}
	}

	// news rows go first so the child tables can satisfy their foreign
	// keys; the three child tables then persist in parallel
	newsRes, err := d.repo.SaveNews(ctx, newsRows)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("persist batch: %w", err)
	}

	var thumbRes, tickerRes, sentimentRes repository.SaveResult
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		thumbRes, err = d.repo.SaveThumbnails(egCtx, thumbRows)
		return err
	})
	eg.Go(func() error {
		var err error
		tickerRes, err = d.repo.SaveRelatedTickers(egCtx, tickerRows)
		return err
	})
	eg.Go(func() error {
		var err error
		sentimentRes, err = d.repo.SaveSentiments(egCtx, sentimentRows)
		return err
	})
	if err := eg.Wait(); err != nil {
		return DeliveryResult{}, fmt.Errorf("persist batch: %w", err)
	}

	return DeliveryResult{
		Saved:  newsRes.Saved + thumbRes.Saved + tickerRes.Saved + sentimentRes.Saved,
		Failed: newsRes.Failed + thumbRes.Failed + tickerRes.Failed + sentimentRes.Failed,
	}, nil
}
