// Package ingest buffers scraped articles, deduplicates them and flushes
// them to a delivery destination in fixed-size batches.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/telemetry"
)

// flushBatchSize is the number of articles handed to the destination per
// batch during a flush.
const flushBatchSize = 20

// DeliveryResult reports what one batch delivery did. Rejected carries
// articles the destination refused; the sink re-queues them at the tail
// of its buffer.
type DeliveryResult struct {
	Saved    int
	Failed   int
	Rejected []*entity.Article
}

// Destination takes one batch of articles and persists or forwards it.
type Destination interface {
	Deliver(ctx context.Context, batch []*entity.Article) (DeliveryResult, error)
}

// ExistingChecker is implemented by destinations that can report which
// uuids they already hold. The sink uses it to skip articles persisted by
// a previous process and to seed its seen set.
type ExistingChecker interface {
	Existing(ctx context.Context, uuids []string) (map[string]bool, error)
}

// FlushSummary aggregates one Flush call across all batches.
type FlushSummary struct {
	Batches  int
	Saved    int
	Failed   int
	Skipped  int
	Requeued int
}

// Sink is the dedup buffer between the scrapers and the destination. An
// article uuid is admitted once per process lifetime; the buffer holds
// admitted articles in arrival order until Flush.
//
// Safe for concurrent use.
type Sink struct {
	mu       sync.Mutex
	seen     map[string]bool
	buffer   []*entity.Article
	dest     Destination
	failed   FailedArticleSink
	recorder *telemetry.Recorder
}

// NewSink creates a Sink flushing into dest. failed and recorder may be
// nil; a nil failed sink drops rejection records.
func NewSink(dest Destination, failed FailedArticleSink, recorder *telemetry.Recorder) *Sink {
	if failed == nil {
		failed = NoopFailedSink{}
	}
	return &Sink{
		seen:     make(map[string]bool),
		dest:     dest,
		failed:   failed,
		recorder: recorder,
	}
}

// Seed marks uuids as already seen, typically from the store at startup.
func (s *Sink) Seed(uuids map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ok := range uuids {
		if ok {
			s.seen[id] = true
		}
	}
}

// AlreadySeen reports whether the uuid was admitted or seeded before.
func (s *Sink) AlreadySeen(uuid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[uuid]
}

// Ingest admits unseen articles into the buffer and returns how many were
// admitted. Duplicates within the argument and against earlier calls are
// dropped.
func (s *Sink) Ingest(articles ...*entity.Article) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	admitted := 0
	for _, article := range articles {
		if article == nil || s.seen[article.UUID] {
			continue
		}
		s.seen[article.UUID] = true
		s.buffer = append(s.buffer, article)
		admitted++
	}
	return admitted
}

// Len returns the number of buffered articles.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// Flush drains the buffer through the destination in batches of twenty.
// The buffer is cleared up front; articles the destination rejects are
// re-queued at the tail and recorded with the failed-article sink. A
// destination error stops the flush and re-queues the remaining batches.
func (s *Sink) Flush(ctx context.Context) (FlushSummary, error) {
	s.mu.Lock()
	pending := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	var summary FlushSummary
	var requeue []*entity.Article

	for start := 0; start < len(pending); start += flushBatchSize {
		end := start + flushBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch, skipped := s.dropPersisted(ctx, pending[start:end])
		summary.Skipped += skipped
		if len(batch) == 0 {
			continue
		}

		var result DeliveryResult
		err := s.record(ctx, "flush_batch", func() error {
			var deliverErr error
			result, deliverErr = s.dest.Deliver(ctx, batch)
			return deliverErr
		})
		if err != nil {
			// keep the undelivered tail for the next flush
			requeue = append(requeue, pending[start:]...)
			s.requeue(requeue)
			summary.Requeued = len(requeue)
			return summary, err
		}

		summary.Batches++
		summary.Saved += result.Saved
		summary.Failed += result.Failed
		for _, rejected := range result.Rejected {
			s.failed.Record(ctx, rejected, "rejected by destination")
			requeue = append(requeue, rejected)
		}
	}

	s.requeue(requeue)
	summary.Requeued = len(requeue)

	slog.Info("sink flushed",
		slog.Int("batches", summary.Batches),
		slog.Int("saved", summary.Saved),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("requeued", summary.Requeued))
	return summary, nil
}

// dropPersisted removes articles the destination already holds, seeding
// the seen set so later scrapes of the same uuids stop at Ingest. A
// lookup failure keeps the batch intact; the store's unique key still
// rejects duplicates row by row.
func (s *Sink) dropPersisted(ctx context.Context, batch []*entity.Article) ([]*entity.Article, int) {
	checker, ok := s.dest.(ExistingChecker)
	if !ok || len(batch) == 0 {
		return batch, 0
	}

	uuids := make([]string, 0, len(batch))
	for _, article := range batch {
		uuids = append(uuids, article.UUID)
	}
	existing, err := checker.Existing(ctx, uuids)
	if err != nil {
		slog.Warn("existing uuid lookup failed", slog.Any("error", err))
		return batch, 0
	}
	s.Seed(existing)

	kept := make([]*entity.Article, 0, len(batch))
	for _, article := range batch {
		if existing[article.UUID] {
			continue
		}
		kept = append(kept, article)
	}
	return kept, len(batch) - len(kept)
}

func (s *Sink) requeue(articles []*entity.Article) {
	if len(articles) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer, articles...)
}

func (s *Sink) record(ctx context.Context, name string, fn func() error) error {
	if s.recorder == nil {
		return fn()
	}
	return s.recorder.Do(ctx, name, func(context.Context) error { return fn() })
}
