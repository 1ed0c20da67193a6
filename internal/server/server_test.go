package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, metricsEnabled bool) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	d := services.NewDashboard(services.DefaultConfig(), discardLogger(), observability.NewMetrics(reg))
	d.SetData(&dataset.Tables{
		Payments: models.PaymentTable{{OrderID: "o1", PaymentType: "boleto", PaymentValue: 10}},
		Sellers:  models.SellerTable{{SellerID: "s1", City: "curitiba"}},
	})

	page := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>dashboard</html>"))
	}
	return NewServer(d, discardLogger(), &TemplateHandlers{Dashboard: page}, MetricsEndpoint{
		MetricsConfig: config.MetricsConfig{Enabled: metricsEnabled, Path: "/metrics"},
		Gatherer:      reg,
	})
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "dashboard"},
		{"/health", http.StatusOK, "healthy"},
		{"/admin/stats", http.StatusOK, "memo_entries"},
		{"/api/payment-types", http.StatusOK, "boleto"},
		{"/api/top-cities", http.StatusOK, "curitiba"},
		{"/api/payment-values", http.StatusOK, "buckets"},
		{"/api/seller-locations", http.StatusOK, `"x":[]`},
		{"/api/seller-hexbin", http.StatusOK, `"counts":[]`},
		{"/api/seller-density", http.StatusOK, `"z":[]`},
		{"/api/dashboard", http.StatusOK, "payment_count"},
		{"/api/options", http.StatusOK, "seller_cities"},
		{"/sse/refresh-all", http.StatusOK, "paymentTypesData"},
		{"/metrics", http.StatusOK, "dashboard_pipeline_runs_total"},
		{"/unknown", http.StatusNotFound, ""},
		{"/api/unknown", http.StatusNotFound, "NOT_FOUND"},
	}

	// Prime the pipeline so the metrics endpoint has samples.
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	s := newTestServer(t, false)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, false)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/options", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func testConfig() *config.Config {
	return &config.Config{Server: config.ServerConfig{
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, discardLogger(), testConfig())

	var ran atomic.Int32
	gs.RegisterShutdownHook("first", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	gs.RegisterShutdownHook("second", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.EqualValues(t, 2, ran.Load())
}

func TestGracefulServer_HookErrorIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, discardLogger(), testConfig())
	boom := errors.New("flush failed")
	gs.RegisterShutdownHook("flush", func(ctx context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = gs.Serve(ctx, ln)
	assert.ErrorIs(t, err, boom)
}

func TestGracefulServer_AllHookErrorsAreJoined(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, discardLogger(), testConfig())
	flushErr := errors.New("flush failed")
	closeErr := errors.New("close failed")
	gs.RegisterShutdownHook("flush", func(ctx context.Context) error { return flushErr })
	gs.RegisterShutdownHook("ok", func(ctx context.Context) error { return nil })
	gs.RegisterShutdownHook("close", func(ctx context.Context) error { return closeErr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = gs.Serve(ctx, ln)
	assert.ErrorIs(t, err, flushErr)
	assert.ErrorIs(t, err, closeErr)
	assert.Contains(t, err.Error(), "shutdown hook flush")
	assert.Contains(t, err.Error(), "shutdown hook close")
}
