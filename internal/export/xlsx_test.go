package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"olist-dashboard/internal/chart"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

func TestWriteXLSX(t *testing.T) {
	snap := &services.Snapshot{
		PaymentTypes: chart.BarSeries{Labels: []string{"credit_card", "boleto"}, Values: []int{2, 1}},
		TopCities:    chart.BarSeries{Labels: []string{"sao paulo"}, Values: []int{3}},
		PaymentValues: chart.ScatterSeries{
			X:       []int{0, 2},
			Y:       []float64{10, 700},
			Buckets: []models.ValueBucket{models.BucketUnder200, models.Bucket600To1200},
			Labels:  []string{"< 200", "600 - 1200"},
		},
		SellerLocations: chart.PointSeries{X: []float64{-46.6}, Y: []float64{-23.5}},
		SellerHexbin: chart.HexbinSeries{
			X: []float64{-46.5}, Y: []float64{-23.5}, Counts: []int{4}, Width: 0.1, Height: 0.2,
		},
		SellerDensity: chart.DensityGrid{
			X:   []float64{1, 2},
			Y:   []float64{5, 6},
			Z:   [][]float64{{0.25, 0.5}, {0.75, 1}},
			Max: 1,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, snap))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetPaymentTypes, SheetTopCities, SheetPaymentValues,
		SheetSellerLocations, SheetSellerHexbin, SheetSellerDensity,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetPaymentTypes)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"payment_type", "transactions"}, {"credit_card", "2"}, {"boleto", "1"}}, rows)

	rows, err = f.GetRows(SheetPaymentValues)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2", "700", "600 - 1200"}, rows[2])

	rows, err = f.GetRows(SheetSellerHexbin)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"center_lng", "center_lat", "sellers"}, {"-46.5", "-23.5", "4"}}, rows)

	rows, err = f.GetRows(SheetSellerDensity)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"geolocation_lng", "geolocation_lat", "density"},
		{"1", "5", "0.25"},
		{"2", "5", "0.5"},
		{"1", "6", "0.75"},
		{"2", "6", "1"},
	}, rows)
}

func TestWriteXLSX_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, &services.Snapshot{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetTopCities)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"seller_city", "sellers"}}, rows)
}
