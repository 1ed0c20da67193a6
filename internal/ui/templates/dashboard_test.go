package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/models"
)

func render(t *testing.T, opts models.FilterOptions) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, Dashboard(opts).Render(context.Background(), &b))
	return b.String()
}

func TestDashboard_RendersOptionsAndCharts(t *testing.T) {
	html := render(t, models.FilterOptions{
		PaymentTypes: []string{"credit_card", "boleto"},
		SellerCities: []string{"sao paulo"},
	})

	for _, want := range []string{
		`<option value="credit_card">credit_card</option>`,
		`<option value="sao paulo">sao paulo</option>`,
		`data-bind-payment-types`,
		`data-bind-seller-cities`,
		`id="payment-types-chart"`,
		`id="top-cities-chart"`,
		`id="payment-values-chart"`,
		`id="seller-locations-chart"`,
		`id="seller-hexbin-chart"`,
		`id="seller-density-chart"`,
		`sellerHexbinData: $sellerHexbinData`,
		`sellerDensityData: $sellerDensityData`,
		`id="summary-content"`,
		`@get('/sse/refresh-all')`,
	} {
		assert.Contains(t, html, want)
	}
}

func TestDashboard_ExportLinkCarriesSelection(t *testing.T) {
	html := render(t, models.FilterOptions{PaymentTypes: []string{"boleto"}})

	start := strings.Index(html, `data-attr-href="`)
	require.NotEqual(t, -1, start, "export link is not bound to the filters")
	attr := html[start:]
	attr = attr[:strings.Index(attr, `">`)]

	assert.Contains(t, attr, "/api/export.xlsx?")
	assert.Contains(t, attr, "$paymentTypes.map(v => ['payment_type', v])")
	assert.Contains(t, attr, "$sellerCities.map(v => ['seller_city', v])")
	assert.Contains(t, html, `<a href="/api/export.xlsx"`)
}

func TestDashboard_EscapesOptions(t *testing.T) {
	html := render(t, models.FilterOptions{SellerCities: []string{`<b>"x"</b>`}})
	assert.NotContains(t, html, "<b>")
}

func TestDashboard_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b strings.Builder
	err := Dashboard(models.FilterOptions{}).Render(ctx, &b)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Len())
}

func TestBucketPalette(t *testing.T) {
	palette, err := bucketPalette()
	require.NoError(t, err)
	assert.Equal(t, `["pink","lightpink","violet","orchid","hotpink","magenta"]`, palette)

	for _, bucket := range models.ValueBuckets {
		assert.NotEmpty(t, BucketColors[bucket], bucket.String())
	}
}

func TestKebab(t *testing.T) {
	assert.Equal(t, "payment-types", kebab("paymentTypes"))
	assert.Equal(t, "seller-cities", kebab("sellerCities"))
}
