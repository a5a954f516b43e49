package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
)

// FailedArticleSink records articles a destination refused so they can be
// replayed or inspected later.
type FailedArticleSink interface {
	Record(ctx context.Context, article *entity.Article, reason string)
}

// NoopFailedSink drops every record.
type NoopFailedSink struct{}

func (NoopFailedSink) Record(context.Context, *entity.Article, string) {}

// DiskFailedSink appends rejected articles to a JSON-lines file.
type DiskFailedSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewDiskFailedSink creates a DiskFailedSink writing to path.
func NewDiskFailedSink(path string) *DiskFailedSink {
	return &DiskFailedSink{path: path, now: time.Now}
}

type failedRecord struct {
	RecordedAt int64           `json:"recorded_at"`
	Reason     string          `json:"reason"`
	Article    *entity.Article `json:"article"`
}

// Record appends one line. Write failures are logged and swallowed; the
// failure file must never take the ingest path down with it.
func (s *DiskFailedSink) Record(_ context.Context, article *entity.Article, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(failedRecord{
		RecordedAt: s.now().Unix(),
		Reason:     reason,
		Article:    article,
	})
	if err != nil {
		slog.Warn("failed article not serializable", slog.Any("error", err))
		return
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Warn("cannot open failed article file",
			slog.String("path", s.path), slog.Any("error", err))
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		slog.Warn("cannot append failed article",
			slog.String("path", s.path), slog.Any("error", err))
	}
}
