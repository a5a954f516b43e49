// Package telemetry records per-minute latency and error aggregates for
// named operations. Buckets are keyed by floor(unix/60) and created lazily
// on the first event of their minute; the admin surface streams them in
// insertion order. Entries are only ever appended, never rewritten.
package telemetry

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
)

// Timing is one recorded invocation of a named operation.
type Timing struct {
	Method  string  `json:"method"`
	Seconds float64 `json:"seconds"`
}

// ErrorEntry is one recorded failure of a named operation.
type ErrorEntry struct {
	Method string `json:"method"`
	Kind   string `json:"kind"`
}

// Bucket holds one minute's worth of entries.
type Bucket struct {
	Timings []Timing     `json:"timing_data"`
	Errors  []ErrorEntry `json:"errors"`
}

// Snapshot pairs a bucket with its minute index for streaming.
type Snapshot struct {
	Minute int64  `json:"minute"`
	Bucket Bucket `json:"bucket"`
}

// Stats is the aggregate view served by /_admin/telemetry/stats.
type Stats struct {
	HighestErrorsPerMinute  int                `json:"highest_errors_per_minute"`
	LowestErrorsPerMinute   int                `json:"lowest_errors_per_minute"`
	HighestLatencyPerMethod map[string]float64 `json:"highest_latency_per_method"`
	LowestLatencyPerMethod  map[string]float64 `json:"lowest_latency_per_method"`
}

// Recorder collects telemetry events. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	buckets map[int64]*Bucket
	order   []int64
	methods map[string]struct{}
	now     func() time.Time
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{
		buckets: make(map[int64]*Bucket),
		methods: make(map[string]struct{}),
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (r *Recorder) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Recorder) currentBucketLocked() *Bucket {
	minute := r.now().Unix() / 60
	b, ok := r.buckets[minute]
	if !ok {
		b = &Bucket{}
		r.buckets[minute] = b
		r.order = append(r.order, minute)
	}
	return b
}

// Record appends a latency entry for method into the current-minute bucket.
func (r *Recorder) Record(method string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.currentBucketLocked()
	b.Timings = append(b.Timings, Timing{Method: method, Seconds: d.Seconds()})
	r.methods[method] = struct{}{}
}

// RecordError appends an error entry for method into the current-minute bucket.
func (r *Recorder) RecordError(method, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.currentBucketLocked()
	b.Errors = append(b.Errors, ErrorEntry{Method: method, Kind: kind})
	r.methods[method] = struct{}{}
}

// Do runs fn under the given operation name. The latency is always
// recorded; a failure additionally records an error entry classified by
// Kind. The error is returned unchanged so the caller decides whether to
// swallow it.
func (r *Recorder) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	start := r.clock()()
	err := fn(ctx)
	r.Record(name, r.clock()().Sub(start))
	if err != nil {
		r.RecordError(name, Kind(err))
	}
	return err
}

func (r *Recorder) clock() func() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now
}

// Methods returns the sorted set of operation names observed so far.
func (r *Recorder) Methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.methods))
	for m := range r.methods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Stream returns copies of all buckets in insertion order.
func (r *Recorder) Stream() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.order))
	for _, minute := range r.order {
		b := r.buckets[minute]
		out = append(out, Snapshot{
			Minute: minute,
			Bucket: Bucket{
				Timings: append([]Timing(nil), b.Timings...),
				Errors:  append([]ErrorEntry(nil), b.Errors...),
			},
		})
	}
	return out
}

// Aggregate folds all buckets into the admin stats view.
func (r *Recorder) Aggregate() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		HighestLatencyPerMethod: make(map[string]float64),
		LowestLatencyPerMethod:  make(map[string]float64),
	}
	first := true
	for _, minute := range r.order {
		b := r.buckets[minute]
		n := len(b.Errors)
		if first {
			stats.HighestErrorsPerMinute = n
			stats.LowestErrorsPerMinute = n
			first = false
		} else {
			if n > stats.HighestErrorsPerMinute {
				stats.HighestErrorsPerMinute = n
			}
			if n < stats.LowestErrorsPerMinute {
				stats.LowestErrorsPerMinute = n
			}
		}
		for _, tm := range b.Timings {
			if cur, ok := stats.HighestLatencyPerMethod[tm.Method]; !ok || tm.Seconds > cur {
				stats.HighestLatencyPerMethod[tm.Method] = tm.Seconds
			}
			if cur, ok := stats.LowestLatencyPerMethod[tm.Method]; !ok || tm.Seconds < cur {
				stats.LowestLatencyPerMethod[tm.Method] = tm.Seconds
			}
		}
	}
	return stats
}

// Kind classifies an error into the coarse kinds the telemetry buckets
// track: transport, timeout, validation, or error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, entity.ErrValidationFailed):
		return "validation"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "transport"
	}
	return "error"
}
