package schedule

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/usecase/ingest"
)

type fakeScraper struct {
	calls   [][]string
	returns []*entity.Article
	err     error
}

func (s *fakeScraper) Scrape(_ context.Context, tickers []string) ([]*entity.Article, error) {
	s.calls = append(s.calls, tickers)
	return s.returns, s.err
}

type fakeDirectory struct {
	tickers  []entity.Ticker
	refreshs int
}

func (d *fakeDirectory) Tickers(_ context.Context) []entity.Ticker { return d.tickers }

func (d *fakeDirectory) Refresh(_ context.Context) { d.refreshs++ }

type fakeBuffer struct {
	ingested []*entity.Article
	flushes  int
	flushErr error
}

func (b *fakeBuffer) Ingest(articles ...*entity.Article) int {
	b.ingested = append(b.ingested, articles...)
	return len(articles)
}

func (b *fakeBuffer) Flush(_ context.Context) (ingest.FlushSummary, error) {
	b.flushes++
	if b.flushErr != nil {
		return ingest.FlushSummary{}, b.flushErr
	}
	return ingest.FlushSummary{Batches: 1, Saved: len(b.ingested)}, nil
}

type recordedRun struct {
	task   string
	status string
}

type fakeMetrics struct {
	runs      []recordedRun
	processed int
}

func (m *fakeMetrics) RecordJobRun(task, status string) {
	m.runs = append(m.runs, recordedRun{task, status})
}

func (m *fakeMetrics) RecordJobDuration(string, float64) {}

func (m *fakeMetrics) RecordArticlesProcessed(count int) { m.processed += count }

func (m *fakeMetrics) RecordLastSuccess() {}

func directoryOf(n int) *fakeDirectory {
	d := &fakeDirectory{}
	for i := 0; i < n; i++ {
		d.tickers = append(d.tickers, entity.Ticker{
			Symbol: fmt.Sprintf("SYM%02d", i),
			Name:   fmt.Sprintf("Company %02d", i),
		})
	}
	return d
}

func newTestRunner(t *testing.T, scraper Scraper, dir Directory, buf Buffer, metrics Metrics) *Runner {
	t.Helper()
	table, err := NewTable([]string{"09:00=YAHOO"})
	require.NoError(t, err)
	return NewRunner(table, dir, map[Task]Scraper{TaskYahoo: scraper}, buf, metrics, DefaultRunnerConfig())
}

func TestRunSlot_ScrapeIngestFlush(t *testing.T) {
	scraper := &fakeScraper{returns: []*entity.Article{
		{UUID: "uuid-1", Title: "One", Link: "https://x.com/a"},
		{UUID: "uuid-2", Title: "Two", Link: "https://x.com/b"},
	}}
	buf := &fakeBuffer{}
	metrics := &fakeMetrics{}
	r := newTestRunner(t, scraper, directoryOf(30), buf, metrics)

	r.RunSlot(context.Background(), r.table.Slots()[0])

	require.Len(t, scraper.calls, 1)
	assert.Len(t, scraper.calls[0], 10)
	assert.Len(t, buf.ingested, 2)
	assert.Equal(t, 1, buf.flushes)
	require.Len(t, metrics.runs, 1)
	assert.Equal(t, recordedRun{"YAHOO", "success"}, metrics.runs[0])
	assert.Equal(t, 2, metrics.processed)
}

func TestRunSlot_WindowRotates(t *testing.T) {
	scraper := &fakeScraper{}
	r := newTestRunner(t, scraper, directoryOf(25), &fakeBuffer{}, nil)
	slot := r.table.Slots()[0]

	r.RunSlot(context.Background(), slot)
	r.RunSlot(context.Background(), slot)
	r.RunSlot(context.Background(), slot)

	require.Len(t, scraper.calls, 3)
	assert.Equal(t, "SYM00", scraper.calls[0][0])
	assert.Equal(t, "SYM10", scraper.calls[1][0])
	// third window wraps past the end of the 25-ticker directory
	assert.Equal(t, "SYM20", scraper.calls[2][0])
	assert.Equal(t, "SYM00", scraper.calls[2][5])
}

func TestRunSlot_ScrapeFailureRecorded(t *testing.T) {
	scraper := &fakeScraper{err: fmt.Errorf("search down")}
	buf := &fakeBuffer{}
	metrics := &fakeMetrics{}
	r := newTestRunner(t, scraper, directoryOf(5), buf, metrics)

	r.RunSlot(context.Background(), r.table.Slots()[0])

	assert.Equal(t, 0, buf.flushes)
	require.Len(t, metrics.runs, 1)
	assert.Equal(t, "failure", metrics.runs[0].status)
}

func TestRunSlot_UnknownTaskIsSkipped(t *testing.T) {
	buf := &fakeBuffer{}
	metrics := &fakeMetrics{}
	table, err := NewTable([]string{"09:00=ALT"})
	require.NoError(t, err)
	r := NewRunner(table, directoryOf(5), map[Task]Scraper{}, buf, metrics, DefaultRunnerConfig())

	r.RunSlot(context.Background(), table.Slots()[0])

	assert.Empty(t, metrics.runs)
	assert.Equal(t, 0, buf.flushes)
}

func TestRunner_IntervalModeRunsEachSlotOnce(t *testing.T) {
	scraper := &fakeScraper{}
	buf := &fakeBuffer{}
	table, err := NewTable([]string{"09:00=YAHOO", "13:00=YAHOO"})
	require.NoError(t, err)

	cfg := DefaultRunnerConfig()
	cfg.InterSlotDelay = 5 * time.Millisecond
	r := NewRunner(table, directoryOf(5), map[Task]Scraper{TaskYahoo: scraper}, buf, nil, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// both slots executed exactly once despite many loop iterations
	assert.Len(t, scraper.calls, 2)
	for _, slot := range table.Slots() {
		assert.True(t, slot.Ran())
	}
}

func TestRunner_Run_InvalidRolloverSpec(t *testing.T) {
	table, err := NewTable([]string{"09:00=YAHOO"})
	require.NoError(t, err)
	cfg := DefaultRunnerConfig()
	cfg.RolloverSpec = "every midnight"
	runner := NewRunner(table, &fakeDirectory{}, map[Task]Scraper{TaskYahoo: &fakeScraper{}}, &fakeBuffer{}, nil, cfg)

	err = runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollover")
}
