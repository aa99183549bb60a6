package app

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := defaultConfig()
	cfg.LogLevel = "error"
	cfg.ShutdownGracePeriod = 2 * time.Second
	cfg.InfluxURL = "http://127.0.0.1:1"
	cfg.InfluxTimeout = 200 * time.Millisecond
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "postgres"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestApplicationHandler(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{"memory", StoreMemory},
		{"sqlite", StoreSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.StoreDriver = tt.driver
			cfg.DatabaseFile = filepath.Join(t.TempDir(), "influxmcp.db")

			app, err := New(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, app.Shutdown()) })

			rec := httptest.NewRecorder()
			app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, mcpsdk.PathLivez, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			// No INFLUXDB_TOKEN: not ready, and MCP requests are refused.
			rec = httptest.NewRecorder()
			app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, mcpsdk.PathReadyz, nil))
			require.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var health mcpsdk.HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
			require.Equal(t, "ok", health.Checks.Store)
			require.Equal(t, "error: not configured", health.Checks.InfluxDB)

			rec = httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, mcpsdk.PathMCP, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
			app.Handler().ServeHTTP(rec, req)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			require.Contains(t, rec.Body.String(), "INFLUXDB_TOKEN environment variable is required")
		})
	}
}

func TestApplicationServesMCP(t *testing.T) {
	cfg := testConfig(t)
	cfg.InfluxToken = "token"

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, mcpsdk.PathMCP, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "query-data")
}

func TestServeStopsOnCancel(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + mcpsdk.PathHealth)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeEndsOpenStreams(t *testing.T) {
	cfg := testConfig(t)
	cfg.InfluxToken = "token"
	cfg.ShutdownGracePeriod = 10 * time.Second

	app, err := New(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/sse")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: endpoint\n", line)

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
		require.Less(t, time.Since(start), cfg.ShutdownGracePeriod/2, "open stream held shutdown")
	case <-time.After(cfg.ShutdownGracePeriod):
		t.Fatal("Serve did not return after cancel")
	}
}
