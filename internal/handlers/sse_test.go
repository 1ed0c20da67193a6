package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

func signalsRequest(path, signals string) *http.Request {
	if signals == "" {
		return httptest.NewRequest(http.MethodGet, path, nil)
	}
	return httptest.NewRequest(http.MethodGet, path+"?datastar="+url.QueryEscape(signals), nil)
}

func TestNewSSEHandlers(t *testing.T) {
	dashboard := createTestDashboard()
	logger := testLogger()

	handlers := NewSSEHandlers(dashboard, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}

	if handlers.dashboard != dashboard {
		t.Error("NewSSEHandlers() should set dashboard field")
	}

	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_renderSummary(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	snap, err := handlers.dashboard.Snapshot(t.Context(), models.FilterSelection{})
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	html, err := handlers.renderSummary(snap)
	if err != nil {
		t.Fatalf("renderSummary() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="summary-content">`,
		`<table class="modern-table">`,
		"<th>Payment type</th>",
		"<th>Transactions</th>",
		"credit_card",
		"boleto",
		"66.7%",
		"33.3%",
		"<strong>3</strong> payments",
	}

	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_renderSummary_LimitsRows(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	snap := &services.Snapshot{PaymentCount: 30}
	for i := 0; i < 30; i++ {
		snap.PaymentTypes.Labels = append(snap.PaymentTypes.Labels, "type")
		snap.PaymentTypes.Values = append(snap.PaymentTypes.Values, 1)
	}

	html, err := handlers.renderSummary(snap)
	if err != nil {
		t.Fatalf("renderSummary() failed: %v", err)
	}

	rowCount := strings.Count(html, "<tr>") - 1
	if rowCount != maxSummaryRows {
		t.Errorf("expected %d rows, got %d", maxSummaryRows, rowCount)
	}
}

func TestSSEHandlers_renderSummary_EscapesLabels(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	snap := &services.Snapshot{PaymentCount: 1}
	snap.PaymentTypes.Labels = []string{"<script>x</script>"}
	snap.PaymentTypes.Values = []int{1}

	html, err := handlers.renderSummary(snap)
	if err != nil {
		t.Fatalf("renderSummary() failed: %v", err)
	}

	if strings.Contains(html, "<script>") {
		t.Error("labels must be HTML escaped")
	}
}

func TestSSEHandlers_ChartSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		signal  string
		status  string
	}{
		{"payment-types", handlers.HandlePaymentTypes, "paymentTypesData", "Payment types chart data loaded"},
		{"top-cities", handlers.HandleTopCities, "topCitiesData", "Top cities chart data loaded"},
		{"payment-values", handlers.HandlePaymentValues, "paymentValuesData", "Payment values chart data loaded"},
		{"seller-locations", handlers.HandleSellerLocations, "sellerLocationsData", "Seller locations chart data loaded"},
		{"seller-locations", handlers.HandleSellerLocations, "sellerHexbinData", "Seller hexbin chart data loaded"},
		{"seller-locations", handlers.HandleSellerLocations, "sellerDensityData", "Seller density chart data loaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			tt.handler(w, signalsRequest("/sse/"+tt.name, ""))

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}

			body := w.Body.String()
			if !strings.Contains(body, tt.signal) {
				t.Errorf("response should contain %s signal", tt.signal)
			}
			if !strings.Contains(body, tt.status) {
				t.Errorf("response should contain %q", tt.status)
			}
		})
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRefreshAll(w, signalsRequest("/sse/refresh-all", `{"paymentTypes":["boleto"],"sellerCities":[]}`))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()

	expectedSignals := []string{
		"paymentTypesData",
		"topCitiesData",
		"paymentValuesData",
		"sellerLocationsData",
		"sellerHexbinData",
		"sellerDensityData",
	}
	for _, signal := range expectedSignals {
		if !strings.Contains(body, signal) {
			t.Errorf("response should contain %q signal", signal)
		}
	}

	if !strings.Contains(body, "<table") {
		t.Error("response should contain the summary table")
	}

	if strings.Contains(body, "credit_card") {
		t.Error("credit_card should be filtered out by the boleto selection")
	}
}

func TestSSEHandlers_InvalidSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	tests := []struct {
		name    string
		signals string
	}{
		{"malformed json", `{"paymentTypes":`},
		{"wrong type", `{"paymentTypes":"boleto"}`},
		{"too long", `{"sellerCities":["` + strings.Repeat("x", 200) + `"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handlers.HandleRefreshAll(w, signalsRequest("/sse/refresh-all", tt.signals))

			body := w.Body.String()
			if !strings.Contains(body, "status-error") {
				t.Error("response should patch the status element with an error")
			}
			if strings.Contains(body, "paymentTypesData") {
				t.Error("no chart signals should be sent on error")
			}
		})
	}
}

func TestSSEHandlers_HeaderConsistency(t *testing.T) {
	handlers := NewSSEHandlers(createTestDashboard(), testLogger())

	sseEndpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"payment-types", handlers.HandlePaymentTypes},
		{"top-cities", handlers.HandleTopCities},
		{"payment-values", handlers.HandlePaymentValues},
		{"seller-locations", handlers.HandleSellerLocations},
		{"refresh-all", handlers.HandleRefreshAll},
	}

	for _, endpoint := range sseEndpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			endpoint.handler(w, req)

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("expected cache-control 'no-cache', got %q", cc)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
				t.Error("response should contain SSE event format")
			}
		})
	}
}
