package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func dashboardPage(dashboard *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Cache-Control", cacheMaxAge)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(dashboard.Options()).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func dashboardConfig(cfg config.DatasetConfig) services.Config {
	return services.Config{
		TopCities:  cfg.TopCities,
		SampleCap:  cfg.SampleCap,
		SampleSeed: cfg.SampleSeed,
		MemoSize:   cfg.MemoSize,

		HexbinGridSize:  cfg.HexbinGridSize,
		HexbinMinCount:  cfg.HexbinMinCount,
		DensityGridSize: cfg.DensityGridSize,
	}
}

func newHandler(cfg *config.Config, logger *slog.Logger, srv http.Handler, metrics *observability.Metrics, limiter *middleware.RateLimiter) http.Handler {
	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
		middleware.Metrics(metrics),
	)
	return chain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	reg := newRegistry()
	metrics := observability.NewMetrics(reg)

	dashboard := services.NewDashboard(dashboardConfig(cfg.Dataset), observability.Component(logger, "dashboard"), metrics)
	loader := dataset.NewLoader(observability.Component(logger, "loader"))

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	err = dashboard.Load(loadCtx, loader, dataset.Sources{
		Payments: cfg.Dataset.PaymentsFile,
		Sellers:  cfg.Dataset.SellersFile,
		Geo:      cfg.Dataset.GeoFile,
	})
	cancelLoad()
	if err != nil {
		logger.Error("failed to load datasets", "error", err, "error_code", errors.CodeOf(err))
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(dashboard),
	}

	srv := server.NewServer(dashboard, logger, templateHandlers, server.MetricsEndpoint{
		MetricsConfig: cfg.Metrics,
		Gatherer:      reg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	go rateLimiter.Run(limiterCtx)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, logger, srv, metrics, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("rate-limiter", func(ctx context.Context) error {
		stopLimiter()
		return nil
	})
	gracefulServer.RegisterShutdownHook("dashboard-stats", func(ctx context.Context) error {
		logger.Info("dashboard stats at shutdown", "stats", dashboard.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
