package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/time/rate"

	"github.com/MJ-API-Development/NewsAPI/internal/config"
	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/handler/http/admin"
	pgRepo "github.com/MJ-API-Development/NewsAPI/internal/infra/adapter/persistence/postgres"
	"github.com/MJ-API-Development/NewsAPI/internal/infra/db"
	"github.com/MJ-API-Development/NewsAPI/internal/infra/fetcher"
	"github.com/MJ-API-Development/NewsAPI/internal/infra/httpclient"
	"github.com/MJ-API-Development/NewsAPI/internal/infra/scraper"
	workerPkg "github.com/MJ-API-Development/NewsAPI/internal/infra/worker"
	"github.com/MJ-API-Development/NewsAPI/internal/observability/logging"
	"github.com/MJ-API-Development/NewsAPI/internal/resilience/circuitbreaker"
	"github.com/MJ-API-Development/NewsAPI/internal/schedule"
	"github.com/MJ-API-Development/NewsAPI/internal/telemetry"
	"github.com/MJ-API-Development/NewsAPI/internal/usecase/ingest"
	pkgconfig "github.com/MJ-API-Development/NewsAPI/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", slog.Any("error", err))
		os.Exit(1)
	}

	logger, logRing := logging.NewLogger(cfg.DevelopmentServerName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("schedule_mode", workerConfig.ScheduleMode),
		slog.String("delivery_mode", workerConfig.DeliveryMode),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("ticker_window", workerConfig.TickerWindow),
		slog.Duration("scrape_timeout", workerConfig.ScrapeTimeout))

	database := initDatabase(logger, cfg.SQLDBURL, cfg.TotalConnections)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	recorder := telemetry.New()

	sink := buildSink(logger, cfg, workerConfig, database, recorder, workerMetrics)
	directory, scrapers := buildScrapers(logger, cfg, workerConfig, sink, recorder, workerMetrics)

	// health and admin surfaces
	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	startAdminServer(ctx, logger, recorder, logRing)

	table, err := schedule.NewTable(workerConfig.SlotSpecs)
	if err != nil {
		logger.Error("invalid slot table", slog.Any("error", err))
		os.Exit(1)
	}
	location, err := time.LoadLocation(workerConfig.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", workerConfig.Timezone), slog.Any("error", err))
		location = time.UTC
	}

	runner := schedule.NewRunner(table, directory, scrapers, sink, workerMetrics, schedule.RunnerConfig{
		Mode:                 workerConfig.ScheduleMode,
		InterSlotDelay:       workerConfig.InterSlotDelay,
		TickerWindow:         workerConfig.TickerWindow,
		TickerRefreshCadence: workerConfig.TickerRefreshCadence,
		RolloverSpec:         workerConfig.RolloverCronSpec,
		Location:             location,
	})

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("mode", workerConfig.ScheduleMode),
		slog.Int("slots", len(table.Slots())))

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("scheduler stopped", slog.Any("error", err))
		os.Exit(1)
	}
	healthServer.SetReady(false)
	logger.Info("worker stopped")
}

// initDatabase opens the pool and applies the schema.
func initDatabase(logger *slog.Logger, dsn string, maxConns int) *sql.DB {
	database, err := db.Open(dsn, maxConns)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// buildSink wires the dedup buffer to the configured delivery destination.
func buildSink(logger *slog.Logger, cfg *config.Config, workerConfig *workerPkg.WorkerConfig, database *sql.DB, recorder *telemetry.Recorder, metrics *workerPkg.WorkerMetrics) *ingest.Sink {
	var dest ingest.Destination
	switch workerConfig.DeliveryMode {
	case workerPkg.DeliveryCronPost:
		dest = ingest.NewCronDestination(newHTTPClient(30*time.Second), cfg.CronEndpoint, ingest.DeliveryCredentials{
			APIKey:      cfg.APIKey,
			SecretToken: cfg.SecretToken,
			ProxySecret: cfg.RapidAPIProxySecret,
		})
		logger.Info("delivering articles to cron endpoint", slog.String("endpoint", cfg.CronEndpoint))
	default:
		breaker := circuitbreaker.NewDBCircuitBreaker(database)
		dest = ingest.NewStoreDestination(pgRepo.NewNewsRepo(breaker, metrics))
		logger.Info("delivering articles to database")
	}

	failed := ingest.NewDiskFailedSink(cfg.FailedArticlePath)
	return ingest.NewSink(dest, failed, recorder)
}

// buildScrapers wires the ticker directory and the two scrape pipelines.
func buildScrapers(logger *slog.Logger, cfg *config.Config, workerConfig *workerPkg.WorkerConfig, sink *ingest.Sink, recorder *telemetry.Recorder, metrics *workerPkg.WorkerMetrics) (*scraper.Directory, map[schedule.Task]schedule.Scraper) {
	baseClient := newHTTPClient(30 * time.Second)

	proxyClient := httpclient.NewProxyClient(httpclient.NewFetcher(baseClient), httpclient.ProxyConfig{
		WorkerURL:     cfg.ProxyWorkerURL,
		ZoneID:        cfg.CloudflareZoneID,
		WorkerName:    cfg.CloudflareWorkerName,
		APIEmail:      cfg.CloudflareEmail,
		APIKey:        cfg.CloudflareAPIKey,
		SecurityToken: cfg.SecurityToken,
		OnFallback:    metrics.RecordProxyFallback,
	}, recorder)

	exchange := scraper.NewExchangeClient(baseClient, cfg.ExchangesEndpoint, cfg.ExchangeStockEndpoint, cfg.EODStockAPIKey)
	directory := scraper.NewDirectory(proxyClient, cfg.MemeTickersURI, workerConfig.TickerRefreshCadence, exchange)

	rps := pkgconfig.GetEnvInt("SCRAPE_RATE_LIMIT", 5)
	limiter := rate.NewLimiter(rate.Limit(rps), 2*rps)
	yahoo := scraper.NewYahooScraper(proxyClient, scraper.NewExtractor(proxyClient), sink, limiter, recorder)

	var content scraper.ContentFetcher
	contentConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("content fetching disabled", slog.Any("error", err))
	} else if contentConfig.Enabled {
		content = fetcher.NewReadabilityFetcher(contentConfig)
		logger.Info("content fetching enabled",
			slog.Int("threshold", contentConfig.Threshold),
			slog.Duration("timeout", contentConfig.Timeout))
	}
	rss := scraper.NewRSSScraper(baseClient, cfg.RSSFeedURIs, content)

	timeout := workerConfig.ScrapeTimeout
	return directory, map[schedule.Task]schedule.Scraper{
		schedule.TaskYahoo: withTimeout(yahoo, timeout),
		schedule.TaskAlt:   withTimeout(rss, timeout),
	}
}

// startAdminServer serves telemetry, log streaming and Prometheus metrics.
func startAdminServer(ctx context.Context, logger *slog.Logger, recorder *telemetry.Recorder, logs *logging.Ring) {
	addr := fmt.Sprintf(":%d", pkgconfig.GetEnvInt("ADMIN_PORT", 9090))
	mux := http.NewServeMux()
	admin.New(recorder, logs).Register(mux)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("admin server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server failed", slog.Any("error", err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown failed", slog.Any("error", err))
		}
	}()
}

// newHTTPClient builds an outbound client with pooling and TLS 1.2+.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// timeoutScraper bounds each slot scrape with the configured timeout.
type timeoutScraper struct {
	inner   schedule.Scraper
	timeout time.Duration
}

func withTimeout(inner schedule.Scraper, timeout time.Duration) schedule.Scraper {
	if timeout <= 0 {
		return inner
	}
	return &timeoutScraper{inner: inner, timeout: timeout}
}

func (t *timeoutScraper) Scrape(ctx context.Context, tickers []string) ([]*entity.Article, error) {
	scrapeCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Scrape(scrapeCtx, tickers)
}
