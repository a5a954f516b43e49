package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MJ-API-Development/NewsAPI/internal/pkg/config"
)

// WorkerMetrics is the Prometheus metric set of the ingestion worker. It
// embeds the shared config metrics and adds slot-run counters; the type
// satisfies the scheduler's Metrics interface.
//
// Worker metrics:
//   - worker_slot_runs_total{task,status}: slot executions by task and outcome
//   - worker_slot_duration_seconds{task}: slot execution duration histogram
//   - worker_articles_processed_total: articles admitted into the sink
//   - worker_last_success_timestamp: Unix time of the last successful slot
//   - worker_proxy_fallbacks_total: scrape requests retried without the proxy
//   - worker_row_errors_total{table}: rejected rows by table
type WorkerMetrics struct {
	*config.ConfigMetrics

	SlotRunsTotal          *prometheus.CounterVec
	SlotDurationSeconds    *prometheus.HistogramVec
	ArticlesProcessedTotal prometheus.Counter
	LastSuccessTimestamp   prometheus.Gauge
	ProxyFallbacksTotal    prometheus.Counter
	RowErrorsTotal         *prometheus.CounterVec
}

// NewWorkerMetrics creates the metric set. Metrics register with the
// default registry via promauto, so construct this once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		SlotRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_slot_runs_total",
			Help: "Total number of slot executions by task and status (success/failure)",
		}, []string{"task", "status"}),

		SlotDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_slot_duration_seconds",
			Help:    "Duration of slot executions in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"task"}),

		ArticlesProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_articles_processed_total",
			Help: "Total number of articles admitted into the sink across all slot runs",
		}),

		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_last_success_timestamp",
			Help: "Unix timestamp of the last successful slot run",
		}),

		ProxyFallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_proxy_fallbacks_total",
			Help: "Total number of scrape requests that fell back to a direct connection",
		}),

		RowErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_row_errors_total",
			Help: "Total number of rows the store rejected, by table",
		}, []string{"table"}),
	}
}

// RecordJobRun counts one slot execution for the task with the given
// status ("success" or "failure").
func (m *WorkerMetrics) RecordJobRun(task, status string) {
	m.SlotRunsTotal.WithLabelValues(task, status).Inc()
}

// RecordJobDuration observes one slot execution duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(task string, seconds float64) {
	m.SlotDurationSeconds.WithLabelValues(task).Observe(seconds)
}

// RecordArticlesProcessed adds the admitted article count of one slot run.
func (m *WorkerMetrics) RecordArticlesProcessed(count int) {
	m.ArticlesProcessedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last successful slot run with the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}

// RecordProxyFallback counts one request served without the proxy.
func (m *WorkerMetrics) RecordProxyFallback() {
	m.ProxyFallbacksTotal.Inc()
}

// RecordRowError counts one rejected row for the table.
func (m *WorkerMetrics) RecordRowError(table string) {
	m.RowErrorsTotal.WithLabelValues(table).Inc()
}
