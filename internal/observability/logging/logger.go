// Package logging builds the process logger. Output is JSON in
// production; when the hostname matches the configured development server
// name the handler switches to human-readable text. Every line is also
// kept in an in-memory ring so the admin surface can stream recent logs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ringCapacity is how many recent log lines the ring retains.
const ringCapacity = 500

// Ring is a fixed-size buffer of recent log lines. It implements
// io.Writer so it can sit behind the slog handler via io.MultiWriter.
//
// Safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewRing creates an empty ring with the default capacity.
func NewRing() *Ring {
	return &Ring{lines: make([]string, ringCapacity)}
}

// Write stores one log line. Writes are line-oriented because slog
// handlers emit exactly one record per Write call.
func (r *Ring) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line == "" {
		return len(p), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	return len(p), nil
}

// Lines returns the retained lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	if r.full {
		out = append(out, r.lines[r.next:]...)
	}
	out = append(out, r.lines[:r.next]...)

	kept := make([]string, 0, len(out))
	for _, line := range out {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return kept
}

// NewLogger creates the process logger and the ring backing the admin log
// stream. Text output is used when the hostname matches devServerName
// case-insensitively; otherwise output is JSON. The log level comes from
// LOG_LEVEL ("debug" enables debug, anything else means info).
func NewLogger(devServerName string) (*slog.Logger, *Ring) {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}

	ring := NewRing()
	out := io.MultiWriter(os.Stdout, ring)
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	}

	var handler slog.Handler
	if isDevelopmentHost(devServerName) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), ring
}

// isDevelopmentHost reports whether this machine is the configured
// development server.
func isDevelopmentHost(devServerName string) bool {
	if devServerName == "" {
		return false
	}
	hostname, err := os.Hostname()
	if err != nil {
		return false
	}
	return strings.EqualFold(hostname, devServerName)
}

// WithFields returns a logger carrying the given structured fields.
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// FromContext retrieves the logger from the context, falling back to the
// default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
