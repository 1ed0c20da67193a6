package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/services"
)

const maxSummaryRows = 20

var summaryTemplate = template.Must(template.New("summary").Parse(`
<div id="summary-content">
<p class="summary-counts"><strong>{{.Payments}}</strong> payments, <strong>{{.Sellers}}</strong> sellers</p>
<table class="modern-table">
<thead><tr><th>Payment type</th><th>Transactions</th><th>Share</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td><span class="category-badge">{{.Label}}</span></td>
<td>{{.Count}}</td>
<td>{{printf "%.1f" .Share}}%</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	selection *selectionReader
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
		selection: newSelectionReader(),
	}
}

type summaryRow struct {
	Label string
	Count int
	Share float64
}

type summaryData struct {
	Payments int
	Sellers  int
	Rows     []summaryRow
}

func (h *SSEHandlers) renderSummary(snap *services.Snapshot) (string, error) {
	data := summaryData{Payments: snap.PaymentCount, Sellers: snap.SellerCount}

	n := min(snap.PaymentTypes.Len(), maxSummaryRows)
	data.Rows = make([]summaryRow, 0, n)
	for i := 0; i < n; i++ {
		row := summaryRow{Label: snap.PaymentTypes.Labels[i], Count: snap.PaymentTypes.Values[i]}
		if snap.PaymentCount > 0 {
			row.Share = 100 * float64(row.Count) / float64(snap.PaymentCount)
		}
		data.Rows = append(data.Rows, row)
	}

	var buf strings.Builder
	err := summaryTemplate.Execute(&buf, data)
	return buf.String(), err
}

// snapshot reads the selection from the datastar signals. Failures are
// reported into the page's status element since SSE has no error body.
func (h *SSEHandlers) snapshot(sse *datastar.ServerSentEventGenerator, r *http.Request) (*services.Snapshot, bool) {
	sel, err := h.selection.fromSignals(r)
	if err == nil {
		var snap *services.Snapshot
		snap, err = h.dashboard.Snapshot(r.Context(), sel)
		if err == nil {
			return snap, true
		}
	}

	h.logger.Warn("dashboard update failed", "error", err)
	sse.PatchElements(fmt.Sprintf(`<div id="status-content" class="status-error">%s</div>`,
		template.HTMLEscapeString(err.Error())))
	return nil, false
}

func (h *SSEHandlers) patch(w http.ResponseWriter, sse *datastar.ServerSentEventGenerator, signals map[string]any, elements ...string) {
	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	for _, el := range elements {
		sse.PatchElements(el)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandlePaymentTypes(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap, ok := h.snapshot(sse, r)
	if !ok {
		return
	}
	h.patch(w, sse, map[string]any{"paymentTypesData": snap.PaymentTypes},
		`<div id="payment-types-content">✅ Payment types chart data loaded</div>`)
}

func (h *SSEHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap, ok := h.snapshot(sse, r)
	if !ok {
		return
	}
	h.patch(w, sse, map[string]any{"topCitiesData": snap.TopCities},
		`<div id="top-cities-content">✅ Top cities chart data loaded</div>`)
}

func (h *SSEHandlers) HandlePaymentValues(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap, ok := h.snapshot(sse, r)
	if !ok {
		return
	}
	h.patch(w, sse, map[string]any{"paymentValuesData": snap.PaymentValues},
		`<div id="payment-values-content">✅ Payment values chart data loaded</div>`)
}

func (h *SSEHandlers) HandleSellerLocations(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap, ok := h.snapshot(sse, r)
	if !ok {
		return
	}
	// The hexbin and density views are drawn from the same sample.
	h.patch(w, sse, map[string]any{
		"sellerLocationsData": snap.SellerLocations,
		"sellerHexbinData":    snap.SellerHexbin,
		"sellerDensityData":   snap.SellerDensity,
	},
		`<div id="seller-locations-content">✅ Seller locations chart data loaded</div>`,
		`<div id="seller-hexbin-content">✅ Seller hexbin chart data loaded</div>`,
		`<div id="seller-density-content">✅ Seller density chart data loaded</div>`)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap, ok := h.snapshot(sse, r)
	if !ok {
		return
	}

	html, err := h.renderSummary(snap)
	if err != nil {
		h.logger.Error("render summary table", "error", err)
		return
	}

	h.patch(w, sse, map[string]any{
		"paymentTypesData":    snap.PaymentTypes,
		"topCitiesData":       snap.TopCities,
		"paymentValuesData":   snap.PaymentValues,
		"sellerLocationsData": snap.SellerLocations,
		"sellerHexbinData":    snap.SellerHexbin,
		"sellerDensityData":   snap.SellerDensity,
	}, html, `<div id="status-content"></div>`)
}
