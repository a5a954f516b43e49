// Package postgres persists scraped news into the four article tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/MJ-API-Development/NewsAPI/internal/repository"
)

// DB is the statement surface the repo needs; *sql.DB satisfies it and so
// does the database circuit breaker wrapper.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// RowMetrics counts rejected rows per table. A nil RowMetrics disables
// counting.
type RowMetrics interface {
	RecordRowError(table string)
}

type NewsRepo struct {
	db      DB
	metrics RowMetrics
}

func NewNewsRepo(db DB, metrics RowMetrics) repository.NewsRepository {
	return &NewsRepo{db: db, metrics: metrics}
}

func (repo *NewsRepo) rowRejected(table string) {
	if repo.metrics != nil {
		repo.metrics.RecordRowError(table)
	}
}

// SaveNews inserts news rows one at a time. A rejected row (duplicate
// key, constraint violation) is logged and counted; it never aborts the
// rest of the batch.
func (repo *NewsRepo) SaveNews(ctx context.Context, rows []repository.NewsRow) (repository.SaveResult, error) {
	const query = `
INSERT INTO news (uuid, title, publisher, link, provider_publish_time, created_at, type)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var result repository.SaveResult
	for _, row := range rows {
		_, err := repo.db.ExecContext(ctx, query,
			row.UUID, nullString(row.Title), nullString(row.Publisher),
			nullString(row.Link), row.ProviderPublishTime, row.CreatedAt,
			nullString(row.Type))
		if err != nil {
			result.Failed++
			repo.rowRejected("news")
			slog.Debug("news row rejected",
				slog.String("uuid", row.UUID), slog.Any("error", err))
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveThumbnails inserts thumbnail rows with the same per-row isolation.
func (repo *NewsRepo) SaveThumbnails(ctx context.Context, rows []repository.ThumbnailRow) (repository.SaveResult, error) {
	const query = `
INSERT INTO thumbnail (thumbnail_id, uuid, url, width, height, tag)
VALUES ($1, $2, $3, $4, $5, $6)`

	var result repository.SaveResult
	for _, row := range rows {
		_, err := repo.db.ExecContext(ctx, query,
			row.ThumbnailID, row.UUID, nullString(row.URL),
			row.Width, row.Height, nullString(row.Tag))
		if err != nil {
			result.Failed++
			repo.rowRejected("thumbnail")
			slog.Debug("thumbnail row rejected",
				slog.String("uuid", row.UUID), slog.Any("error", err))
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveRelatedTickers inserts ticker link rows with per-row isolation.
func (repo *NewsRepo) SaveRelatedTickers(ctx context.Context, rows []repository.RelatedTickerRow) (repository.SaveResult, error) {
	const query = `
INSERT INTO related_tickers (id, uuid, ticker, stock_id)
VALUES ($1, $2, $3, $4)`

	var result repository.SaveResult
	for _, row := range rows {
		_, err := repo.db.ExecContext(ctx, query,
			row.ID, row.UUID, nullString(row.Ticker), nullString(row.StockID))
		if err != nil {
			result.Failed++
			repo.rowRejected("related_tickers")
			slog.Debug("related ticker row rejected",
				slog.String("uuid", row.UUID), slog.Any("error", err))
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveSentiments inserts sentiment shells for articles that carried text.
// The sentiment columns themselves stay NULL.
func (repo *NewsRepo) SaveSentiments(ctx context.Context, rows []repository.SentimentRow) (repository.SaveResult, error) {
	const query = `
INSERT INTO news_sentiment (article_uuid, stock_codes, title, link, article, article_tldr)
VALUES ($1, $2, $3, $4, $5, $6)`

	var result repository.SaveResult
	for _, row := range rows {
		_, err := repo.db.ExecContext(ctx, query,
			row.ArticleUUID, nullString(row.StockCodes), nullString(row.Title),
			nullString(row.Link), nullString(row.Article), nullString(row.ArticleTLDR))
		if err != nil {
			result.Failed++
			repo.rowRejected("news_sentiment")
			slog.Debug("sentiment row rejected",
				slog.String("uuid", row.ArticleUUID), slog.Any("error", err))
			continue
		}
		result.Saved++
	}
	return result, nil
}

// ExistingUUIDs reports which of the given uuids are already stored. The
// sink checks each flush batch against it to skip articles persisted by
// an earlier run.
func (repo *NewsRepo) ExistingUUIDs(ctx context.Context, uuids []string) (map[string]bool, error) {
	if len(uuids) == 0 {
		return map[string]bool{}, nil
	}

	const query = `SELECT uuid FROM news WHERE uuid = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(uuids))
	if err != nil {
		return nil, fmt.Errorf("ExistingUUIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	existing := make(map[string]bool, len(uuids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ExistingUUIDs: Scan: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// nullString maps empty strings to NULL so optional columns stay unset
// rather than holding empty text.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
