// Package export writes dashboard snapshots as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"olist-dashboard/internal/services"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetPaymentTypes    = "Payment Types"
	SheetTopCities       = "Top Cities"
	SheetPaymentValues   = "Payment Values"
	SheetSellerLocations = "Seller Locations"
	SheetSellerHexbin    = "Seller Hexbin"
	SheetSellerDensity   = "Seller Density"
)

type sheet struct {
	name   string
	header []any
	rows   int
	row    func(i int) []any
}

// WriteXLSX writes one sheet per chart of snap to w.
func WriteXLSX(w io.Writer, snap *services.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []sheet{
		{
			name:   SheetPaymentTypes,
			header: []any{"payment_type", "transactions"},
			rows:   snap.PaymentTypes.Len(),
			row: func(i int) []any {
				return []any{snap.PaymentTypes.Labels[i], snap.PaymentTypes.Values[i]}
			},
		},
		{
			name:   SheetTopCities,
			header: []any{"seller_city", "sellers"},
			rows:   snap.TopCities.Len(),
			row: func(i int) []any {
				return []any{snap.TopCities.Labels[i], snap.TopCities.Values[i]}
			},
		},
		{
			name:   SheetPaymentValues,
			header: []any{"index", "payment_value", "bucket"},
			rows:   snap.PaymentValues.Len(),
			row: func(i int) []any {
				return []any{snap.PaymentValues.X[i], snap.PaymentValues.Y[i], snap.PaymentValues.Labels[i]}
			},
		},
		{
			name:   SheetSellerLocations,
			header: []any{"geolocation_lng", "geolocation_lat"},
			rows:   snap.SellerLocations.Len(),
			row: func(i int) []any {
				return []any{snap.SellerLocations.X[i], snap.SellerLocations.Y[i]}
			},
		},
		{
			name:   SheetSellerHexbin,
			header: []any{"center_lng", "center_lat", "sellers"},
			rows:   snap.SellerHexbin.Len(),
			row: func(i int) []any {
				return []any{snap.SellerHexbin.X[i], snap.SellerHexbin.Y[i], snap.SellerHexbin.Counts[i]}
			},
		},
		{
			// One row per grid point, longitude varying fastest.
			name:   SheetSellerDensity,
			header: []any{"geolocation_lng", "geolocation_lat", "density"},
			rows:   snap.SellerDensity.Len(),
			row: func(i int) []any {
				g := snap.SellerDensity
				j, k := i/len(g.X), i%len(g.X)
				return []any{g.X[k], g.Y[j], g.Z[j][k]}
			},
		},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet) error {
	sw, err := f.NewStreamWriter(s.name)
	if err != nil {
		return fmt.Errorf("stream sheet %q: %w", s.name, err)
	}
	if err := sw.SetRow("A1", s.header); err != nil {
		return fmt.Errorf("write %q header: %w", s.name, err)
	}
	for i := 0; i < s.rows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, s.row(i)); err != nil {
			return fmt.Errorf("write %q row %d: %w", s.name, i, err)
		}
	}
	return sw.Flush()
}
