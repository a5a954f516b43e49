package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/usecase/ingest"
)

// Mode selects how slots are executed.
const (
	// ModeInterval iterates the table in order, sleeping a fixed delay
	// after every slot it runs.
	ModeInterval = "interval"
	// ModeAdmission checks the table every minute and runs any slot
	// within fifteen minutes of its wall-clock time.
	ModeAdmission = "admission"
)

// DefaultRolloverSpec regenerates the slot table at midnight.
const DefaultRolloverSpec = "0 0 * * *"

// Scraper is one scrape pipeline keyed by slot task.
type Scraper interface {
	Scrape(ctx context.Context, tickers []string) ([]*entity.Article, error)
}

// Directory supplies the ticker universe and refreshes it on demand.
type Directory interface {
	Tickers(ctx context.Context) []entity.Ticker
	Refresh(ctx context.Context)
}

// Buffer is the article sink the runner drains after every slot.
type Buffer interface {
	Ingest(articles ...*entity.Article) int
	Flush(ctx context.Context) (ingest.FlushSummary, error)
}

// Metrics receives job telemetry. The worker metrics type satisfies it.
type Metrics interface {
	RecordJobRun(task, status string)
	RecordJobDuration(task string, seconds float64)
	RecordArticlesProcessed(count int)
	RecordLastSuccess()
}

type nopMetrics struct{}

func (nopMetrics) RecordJobRun(string, string)       {}
func (nopMetrics) RecordJobDuration(string, float64) {}
func (nopMetrics) RecordArticlesProcessed(int)       {}
func (nopMetrics) RecordLastSuccess()                {}

// RunnerConfig controls the runner loop.
type RunnerConfig struct {
	// Mode is ModeInterval or ModeAdmission.
	Mode string
	// InterSlotDelay is the sleep after each executed slot in interval
	// mode.
	InterSlotDelay time.Duration
	// TickerWindow is how many tickers one slot run covers; the window
	// rotates through the directory across runs.
	TickerWindow int
	// TickerRefreshCadence drives the directory refresh cron job.
	TickerRefreshCadence time.Duration
	// RolloverSpec is the cron expression of the schedule regeneration
	// job. Empty means midnight.
	RolloverSpec string
	// Location anchors day rollover and slot clocks.
	Location *time.Location
}

// DefaultRunnerConfig returns the production loop settings.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Mode:                 ModeInterval,
		InterSlotDelay:       2 * time.Hour,
		TickerWindow:         10,
		TickerRefreshCadence: 3 * time.Hour,
		RolloverSpec:         DefaultRolloverSpec,
		Location:             time.UTC,
	}
}

// Runner drives the slot table: it executes due slots against their
// scrapers, drains the sink, and keeps the table and ticker directory
// fresh via cron jobs.
type Runner struct {
	table     *Table
	directory Directory
	scrapers  map[Task]Scraper
	sink      Buffer
	metrics   Metrics
	cfg       RunnerConfig
	now       func() time.Time

	windowOffset int
}

// NewRunner creates a Runner. metrics may be nil.
func NewRunner(table *Table, directory Directory, scrapers map[Task]Scraper, sink Buffer, metrics Metrics, cfg RunnerConfig) *Runner {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TickerWindow <= 0 {
		cfg.TickerWindow = DefaultRunnerConfig().TickerWindow
	}
	if cfg.InterSlotDelay <= 0 {
		cfg.InterSlotDelay = DefaultRunnerConfig().InterSlotDelay
	}
	return &Runner{
		table:     table,
		directory: directory,
		scrapers:  scrapers,
		sink:      sink,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled. The table regenerates at midnight
// and the directory refreshes on its cadence regardless of mode.
func (r *Runner) Run(ctx context.Context) error {
	// warm the directory before the first slot
	symbols := r.directory.Tickers(ctx)
	slog.Info("scheduler starting",
		slog.String("mode", r.cfg.Mode),
		slog.Int("slots", len(r.table.Slots())),
		slog.Int("tickers", len(symbols)))

	rollover := r.cfg.RolloverSpec
	if rollover == "" {
		rollover = DefaultRolloverSpec
	}
	jobs := cron.New(cron.WithLocation(r.cfg.Location))
	if _, err := jobs.AddFunc(rollover, func() {
		slog.Info("day rollover, regenerating schedule")
		r.table.Regenerate()
	}); err != nil {
		return fmt.Errorf("register rollover job: %w", err)
	}
	if _, err := jobs.AddFunc(fmt.Sprintf("@every %s", r.cfg.TickerRefreshCadence), func() {
		r.directory.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("register ticker refresh job: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	switch r.cfg.Mode {
	case ModeAdmission:
		return r.runAdmission(ctx)
	default:
		return r.runInterval(ctx)
	}
}

// runInterval walks the table in order, runs every slot that has not ran
// today, and sleeps the inter-slot delay after each execution.
func (r *Runner) runInterval(ctx context.Context) error {
	for {
		executed := false
		for _, slot := range r.table.Slots() {
			if slot.Ran() {
				continue
			}
			r.RunSlot(ctx, slot)
			slot.MarkRan()
			executed = true

			if err := sleep(ctx, r.cfg.InterSlotDelay); err != nil {
				return err
			}
		}
		if !executed {
			// everything ran; idle until rollover resets the table
			if err := sleep(ctx, time.Minute); err != nil {
				return err
			}
		}
	}
}

// runAdmission polls the table once a minute and runs whichever slots
// fall inside their admission window.
func (r *Runner) runAdmission(ctx context.Context) error {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()

	for {
		for _, slot := range r.table.Slots() {
			if !CanRun(slot, r.now().In(r.cfg.Location)) {
				continue
			}
			slot.MarkRan()
			r.RunSlot(ctx, slot)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// RunSlot executes one slot end to end: scrape, ingest, flush.
func (r *Runner) RunSlot(ctx context.Context, slot *Slot) {
	scraper, ok := r.scrapers[slot.Task]
	if !ok {
		slog.Warn("no scraper for task", slog.String("task", string(slot.Task)))
		return
	}

	start := r.now()
	task := string(slot.Task)
	slog.Info("running slot",
		slog.String("time", slot.Time), slog.String("task", task))

	articles, err := scraper.Scrape(ctx, r.nextWindow(ctx))
	if err != nil {
		slog.Error("slot scrape failed",
			slog.String("task", task), slog.Any("error", err))
		r.metrics.RecordJobRun(task, "failure")
		r.metrics.RecordJobDuration(task, time.Since(start).Seconds())
		return
	}

	admitted := r.sink.Ingest(articles...)
	summary, err := r.sink.Flush(ctx)
	if err != nil {
		slog.Error("slot flush failed",
			slog.String("task", task), slog.Any("error", err))
		r.metrics.RecordJobRun(task, "failure")
		r.metrics.RecordJobDuration(task, time.Since(start).Seconds())
		return
	}

	r.metrics.RecordJobRun(task, "success")
	r.metrics.RecordJobDuration(task, time.Since(start).Seconds())
	r.metrics.RecordArticlesProcessed(admitted)
	r.metrics.RecordLastSuccess()
	slog.Info("slot complete",
		slog.String("task", task),
		slog.Int("scraped", len(articles)),
		slog.Int("admitted", admitted),
		slog.Int("saved", summary.Saved),
		slog.Int("failed", summary.Failed))
}

// nextWindow returns the next rotating slice of the ticker universe, so
// consecutive slot runs spread the rate budget over the whole directory.
func (r *Runner) nextWindow(ctx context.Context) []string {
	tickers := r.directory.Tickers(ctx)
	if len(tickers) == 0 {
		return nil
	}
	window := r.cfg.TickerWindow
	if window > len(tickers) {
		window = len(tickers)
	}

	symbols := make([]string, 0, window)
	for i := 0; i < window; i++ {
		symbols = append(symbols, tickers[(r.windowOffset+i)%len(tickers)].Symbol)
	}
	r.windowOffset = (r.windowOffset + window) % len(tickers)
	return symbols
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
