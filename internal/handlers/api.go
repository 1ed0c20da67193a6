package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/export"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	selection *selectionReader
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
		selection: newSelectionReader(),
	}
}

// snapshot parses the query selection and runs the pipeline, writing the
// error response itself when either step fails.
func (h *APIHandlers) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	requestID := observability.GetRequestID(r.Context())

	sel, err := h.selection.fromQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil, false
	}

	snap, err := h.dashboard.Snapshot(r.Context(), sel)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil, false
	}
	return snap, true
}

func (h *APIHandlers) HandlePaymentTypes(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap.PaymentTypes, cacheHeaders)
}

func (h *APIHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap.TopCities, cacheHeaders)
}

func (h *APIHandlers) HandlePaymentValues(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap.PaymentValues, cacheHeaders)
}

func (h *APIHandlers) HandleSellerLocations(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap.SellerLocations, cacheHeaders)
}

func (h *APIHandlers) HandleSellerHexbin(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap.SellerHexbin, cacheHeaders)
}

func (h *APIHandlers) HandleSellerDensity(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap.SellerDensity, cacheHeaders)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, snap, cacheHeaders)
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Options(), cacheHeaders)
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, snap); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build workbook"), observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write workbook", "error", err)
	}
}

// HandleNotFound answers unknown API paths with the JSON error envelope.
func (h *APIHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	err := errors.NotFound("No API endpoint at " + r.URL.Path)
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.dashboard.Stats()

	errors.WriteSuccess(w, stats)
}
