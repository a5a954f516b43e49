package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHealthServer(t *testing.T, port int) (*HealthServer, string) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	addr := fmt.Sprintf("localhost:%d", port)
	server := NewHealthServer(addr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		time.Sleep(50 * time.Millisecond)
	})

	go func() {
		if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	return server, "http://" + addr
}

func getHealth(t *testing.T, url string) (int, healthResponse) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, resp.Body.Close())
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed healthResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	return resp.StatusCode, parsed
}

func TestHealthServer_Liveness(t *testing.T) {
	_, base := startHealthServer(t, 19091)

	status, body := getHealth(t, base+"/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)
}

func TestHealthServer_Readiness_NotReady(t *testing.T) {
	_, base := startHealthServer(t, 19092)

	status, body := getHealth(t, base+"/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not ready", body.Status)
}

func TestHealthServer_Readiness_Ready(t *testing.T) {
	server, base := startHealthServer(t, 19093)

	server.SetReady(true)
	status, body := getHealth(t, base+"/health/ready")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)
}

func TestHealthServer_Readiness_Toggles(t *testing.T) {
	server, base := startHealthServer(t, 19094)

	server.SetReady(true)
	status, _ := getHealth(t, base+"/health/ready")
	assert.Equal(t, http.StatusOK, status)

	server.SetReady(false)
	status, _ = getHealth(t, base+"/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestHealthServer_GracefulShutdown(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19095", logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Start(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
