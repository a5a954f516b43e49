// Package admin serves the operator surface of the worker: telemetry
// buckets, aggregate stats, recent log lines, and the Prometheus metrics
// endpoint. The surface is read-only and unauthenticated, so it must only
// be bound to an internal interface.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MJ-API-Development/NewsAPI/internal/observability/logging"
	"github.com/MJ-API-Development/NewsAPI/internal/telemetry"
)

// Server exposes the admin endpoints over an http.ServeMux.
type Server struct {
	recorder *telemetry.Recorder
	logs     *logging.Ring
}

// New creates an admin Server over the recorder and log ring. Either may
// be nil, in which case the corresponding endpoints serve empty payloads.
func New(recorder *telemetry.Recorder, logs *logging.Ring) *Server {
	return &Server{recorder: recorder, logs: logs}
}

// Register installs the admin routes:
//   - GET /_admin/telemetry/stream: per-minute buckets in insertion order
//   - GET /_admin/telemetry/stats: aggregate latency and error stats
//   - GET /_admin/telemetry/stream-logs: recent log lines, oldest first
//   - GET /_admin/admin: reserved for administrative operations
//   - GET /metrics: Prometheus exposition
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/_admin/telemetry/stream", s.handleStream)
	mux.HandleFunc("/_admin/telemetry/stats", s.handleStats)
	mux.HandleFunc("/_admin/telemetry/stream-logs", s.handleStreamLogs)
	mux.HandleFunc("/_admin/admin", s.handleAdmin)
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	var snapshots []telemetry.Snapshot
	if s.recorder != nil {
		snapshots = s.recorder.Stream()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"payload": snapshots,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	var stats telemetry.Stats
	if s.recorder != nil {
		stats = s.recorder.Aggregate()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"payload": stats,
	})
}

func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	lines := []string{}
	if s.logs != nil {
		lines = s.logs.Lines()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"payload": lines,
	})
}

// handleAdmin acknowledges the reserved administrative path. Operations
// behind it are provisioned out of band.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "reserved for administrative operations",
	})
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
			"status": false,
			"error":  "method not allowed",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}
