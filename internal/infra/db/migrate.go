package db

import "database/sql"

// MigrateUp creates the four news tables and their indexes. Statements
// are idempotent so the worker can run this on every start.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS news (
    uuid                  VARCHAR(255) PRIMARY KEY,
    title                 VARCHAR(255),
    publisher             VARCHAR(126),
    link                  VARCHAR(255),
    provider_publish_time BIGINT,
    created_at            BIGINT,
    type                  VARCHAR(32)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS thumbnail (
    thumbnail_id VARCHAR(16) PRIMARY KEY,
    uuid         VARCHAR(255) REFERENCES news(uuid) ON DELETE CASCADE,
    url          VARCHAR(255),
    width        INTEGER,
    height       INTEGER,
    tag          VARCHAR(255)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS related_tickers (
    id       VARCHAR(255) PRIMARY KEY,
    uuid     VARCHAR(255) REFERENCES news(uuid) ON DELETE CASCADE,
    ticker   VARCHAR(16),
    stock_id VARCHAR(16)
)`); err != nil {
		return err
	}

	// sentiment columns stay NULL; analysis runs out of band
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS news_sentiment (
    article_uuid      VARCHAR(64) PRIMARY KEY REFERENCES news(uuid),
    stock_codes       VARCHAR(255),
    title             VARCHAR(255),
    sentiment_title   VARCHAR(255),
    article           TEXT,
    article_tldr      VARCHAR(255),
    sentiment_article VARCHAR(255),
    link              VARCHAR(255)
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_news_title ON news(title)`,
		`CREATE INDEX IF NOT EXISTS idx_news_publisher ON news(publisher)`,
		`CREATE INDEX IF NOT EXISTS idx_news_type ON news(type)`,
		`CREATE INDEX IF NOT EXISTS idx_thumbnail_uuid ON thumbnail(uuid)`,
		`CREATE INDEX IF NOT EXISTS idx_thumbnail_tag ON thumbnail(tag)`,
		`CREATE INDEX IF NOT EXISTS idx_related_tickers_uuid ON related_tickers(uuid)`,
		`CREATE INDEX IF NOT EXISTS idx_related_tickers_ticker ON related_tickers(ticker)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}
