package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/handlers"
	"olist-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// MetricsEndpoint exposes gatherer at Path when Enabled.
type MetricsEndpoint struct {
	config.MetricsConfig
	Gatherer prometheus.Gatherer
}

func NewServer(dashboard *services.Dashboard, logger *slog.Logger, templateHandlers *TemplateHandlers, metrics MetricsEndpoint) *Server {
	s := &Server{
		dashboard:   dashboard,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, logger),
	}
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics MetricsEndpoint) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/payment-types", s.apiHandlers.HandlePaymentTypes)
	s.mux.HandleFunc("GET /api/top-cities", s.apiHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /api/payment-values", s.apiHandlers.HandlePaymentValues)
	s.mux.HandleFunc("GET /api/seller-locations", s.apiHandlers.HandleSellerLocations)
	s.mux.HandleFunc("GET /api/seller-hexbin", s.apiHandlers.HandleSellerHexbin)
	s.mux.HandleFunc("GET /api/seller-density", s.apiHandlers.HandleSellerDensity)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/export.xlsx", s.apiHandlers.HandleExport)
	s.mux.HandleFunc("GET /api/", s.apiHandlers.HandleNotFound)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/payment-types", s.sseHandlers.HandlePaymentTypes)
	s.mux.HandleFunc("GET /sse/top-cities", s.sseHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /sse/payment-values", s.sseHandlers.HandlePaymentValues)
	s.mux.HandleFunc("GET /sse/seller-locations", s.sseHandlers.HandleSellerLocations)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)

	if metrics.Enabled && metrics.Gatherer != nil {
		s.mux.Handle("GET "+metrics.Path, promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
