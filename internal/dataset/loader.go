package dataset

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const ctxCheckEvery = 10000

// Cell spellings treated as missing.
var nanValues = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

// Table is a schema-validated source held as a string-typed dataframe.
// Typed decoding into model records happens in Payments, Sellers and Geo.
type Table struct {
	Name string
	Rows int
	df   dataframe.DataFrame
	cols map[string]bool
}

type column struct {
	values  []string
	missing []bool
}

func (c column) absent() bool { return c.values == nil }

func (c column) at(i int) (string, bool) {
	if c.values == nil || c.missing[i] {
		return "", false
	}
	return c.values[i], true
}

func (t *Table) Has(name string) bool {
	return t.cols[name]
}

func (t *Table) column(name string) column {
	if !t.cols[name] || t.Rows == 0 {
		return column{}
	}
	s := t.df.Col(name)
	values := s.Records()
	missing := s.IsNaN()
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
		if values[i] == "" {
			missing[i] = true
		}
	}
	return column{values: values, missing: missing}
}

type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads a .csv or .xlsx file and validates it against schema.
func (l *Loader) Load(ctx context.Context, path string, schema Schema) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		var file *os.File
		file, err = os.Open(path)
		if err != nil {
			return nil, apperrors.SourceUnavailable(err, path)
		}
		defer file.Close()
		records, err = readCSV(ctx, file, path)
	}
	if err != nil {
		return nil, err
	}

	table, err := fromRecords(records, schema, path)
	if err != nil {
		return nil, err
	}

	l.logger.Info("dataset loaded",
		"dataset", schema.Name,
		"source", path,
		"records", table.Rows,
		"duration", time.Since(start))
	return table, nil
}

// Decode reads CSV content from r and validates it against schema.
func Decode(ctx context.Context, r io.Reader, name string, schema Schema) (*Table, error) {
	records, err := readCSV(ctx, r, name)
	if err != nil {
		return nil, err
	}
	return fromRecords(records, schema, name)
}

func readCSV(ctx context.Context, r io.Reader, source string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				return nil, apperrors.SchemaMismatch(source, parseErr.Error())
			}
			return nil, apperrors.SourceUnavailable(err, source)
		}
		records = append(records, record)

		if len(records)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.SourceUnavailable(err, path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.SchemaMismatch(path, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.SourceUnavailable(err, path)
	}
	return rows, nil
}

func fromRecords(records [][]string, schema Schema, source string) (*Table, error) {
	if len(records) == 0 {
		return nil, apperrors.SchemaMismatch(source, "no header row")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	cols := make(map[string]bool, len(header))
	for _, h := range header {
		cols[h] = true
	}
	for _, name := range schema.required() {
		if !cols[name] {
			return nil, apperrors.SchemaMismatch(source, fmt.Sprintf("missing required column %q", name))
		}
	}

	var selected []string
	for _, c := range schema.Columns {
		if cols[c.Name] {
			selected = append(selected, c.Name)
		}
	}
	table := &Table{Name: schema.Name, Rows: len(records) - 1, cols: make(map[string]bool, len(selected))}
	for _, name := range selected {
		table.cols[name] = true
	}
	if table.Rows == 0 {
		return table, nil
	}

	// Spreadsheet rows drop trailing empty cells.
	normalized := make([][]string, len(records))
	normalized[0] = header
	for i, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		normalized[i+1] = row
	}

	df := dataframe.LoadRecords(normalized,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, apperrors.SchemaMismatch(source, df.Err.Error())
	}
	df = df.Select(selected)
	if df.Err != nil {
		return nil, apperrors.SchemaMismatch(source, df.Err.Error())
	}
	table.df = df
	return table, nil
}

func cellError(t *Table, row int, col, msg string) error {
	// +2: one for the header line, one for 1-based numbering.
	return apperrors.SchemaMismatch(t.Name, fmt.Sprintf("row %d column %q: %s", row+2, col, msg))
}

func requiredString(t *Table, c column, i int, name string) (string, error) {
	v, ok := c.at(i)
	if !ok {
		return "", cellError(t, i, name, "missing value")
	}
	return v, nil
}

func optionalInt(t *Table, c column, i int, name string) (int, error) {
	v, ok := c.at(i)
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, cellError(t, i, name, fmt.Sprintf("expected int, got %q", v))
	}
	return n, nil
}

func parseFloat(t *Table, v string, i int, name string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, cellError(t, i, name, fmt.Sprintf("expected float, got %q", v))
	}
	return f, nil
}

// Payments decodes a payments table. Negative values are rejected here so that
// bucketing never sees them.
func Payments(t *Table) (models.PaymentTable, error) {
	orderIDs := t.column(ColOrderID)
	sequentials := t.column(ColPaymentSequential)
	types := t.column(ColPaymentType)
	installments := t.column(ColPaymentInstallments)
	values := t.column(ColPaymentValue)

	out := make(models.PaymentTable, 0, t.Rows)
	for i := 0; i < t.Rows; i++ {
		orderID, err := requiredString(t, orderIDs, i, ColOrderID)
		if err != nil {
			return nil, err
		}
		paymentType, err := requiredString(t, types, i, ColPaymentType)
		if err != nil {
			return nil, err
		}
		raw, err := requiredString(t, values, i, ColPaymentValue)
		if err != nil {
			return nil, err
		}
		value, err := parseFloat(t, raw, i, ColPaymentValue)
		if err != nil {
			return nil, err
		}
		if value < 0 {
			return nil, cellError(t, i, ColPaymentValue, fmt.Sprintf("negative payment value %v", value))
		}
		seq, err := optionalInt(t, sequentials, i, ColPaymentSequential)
		if err != nil {
			return nil, err
		}
		inst, err := optionalInt(t, installments, i, ColPaymentInstallments)
		if err != nil {
			return nil, err
		}

		out = append(out, models.PaymentRecord{
			Index:               i,
			OrderID:             orderID,
			PaymentSequential:   seq,
			PaymentType:         paymentType,
			PaymentInstallments: inst,
			PaymentValue:        value,
		})
	}
	return out, nil
}

func Sellers(t *Table) (models.SellerTable, error) {
	ids := t.column(ColSellerID)
	zips := t.column(ColSellerZipCode)
	cities := t.column(ColSellerCity)
	states := t.column(ColSellerState)

	out := make(models.SellerTable, 0, t.Rows)
	for i := 0; i < t.Rows; i++ {
		id, err := requiredString(t, ids, i, ColSellerID)
		if err != nil {
			return nil, err
		}
		city, err := requiredString(t, cities, i, ColSellerCity)
		if err != nil {
			return nil, err
		}
		zip, _ := zips.at(i)
		state, _ := states.at(i)

		out = append(out, models.SellerRecord{
			SellerID:      id,
			ZipCodePrefix: zip,
			City:          city,
			State:         state,
		})
	}
	return out, nil
}

// Geo decodes a geolocation table. Rows with empty cells are kept and marked
// Incomplete; malformed or out-of-range coordinates fail the load.
func Geo(t *Table) (models.GeoTable, error) {
	cols := map[string]column{}
	for _, c := range GeoSchema.Columns {
		cols[c.Name] = t.column(c.Name)
	}

	out := make(models.GeoTable, 0, t.Rows)
	for i := 0; i < t.Rows; i++ {
		var rec models.GeoRecord
		for _, c := range cols {
			if c.absent() {
				continue
			}
			if _, ok := c.at(i); !ok {
				rec.Incomplete = true
			}
		}

		rec.ZipCodePrefix, _ = cols[ColGeoZipCode].at(i)
		rec.City, _ = cols[ColGeoCity].at(i)
		rec.State, _ = cols[ColGeoState].at(i)

		if v, ok := cols[ColGeoLat].at(i); ok {
			lat, err := parseFloat(t, v, i, ColGeoLat)
			if err != nil {
				return nil, err
			}
			if lat < -90 || lat > 90 {
				return nil, cellError(t, i, ColGeoLat, fmt.Sprintf("latitude %v out of range", lat))
			}
			rec.Latitude = lat
		}
		if v, ok := cols[ColGeoLng].at(i); ok {
			lng, err := parseFloat(t, v, i, ColGeoLng)
			if err != nil {
				return nil, err
			}
			if lng < -180 || lng > 180 {
				return nil, cellError(t, i, ColGeoLng, fmt.Sprintf("longitude %v out of range", lng))
			}
			rec.Longitude = lng
		}

		out = append(out, rec)
	}
	return out, nil
}

func (l *Loader) LoadPayments(ctx context.Context, path string) (models.PaymentTable, error) {
	t, err := l.Load(ctx, path, PaymentsSchema)
	if err != nil {
		return nil, err
	}
	return Payments(t)
}

func (l *Loader) LoadSellers(ctx context.Context, path string) (models.SellerTable, error) {
	t, err := l.Load(ctx, path, SellersSchema)
	if err != nil {
		return nil, err
	}
	return Sellers(t)
}

func (l *Loader) LoadGeo(ctx context.Context, path string) (models.GeoTable, error) {
	t, err := l.Load(ctx, path, GeoSchema)
	if err != nil {
		return nil, err
	}
	return Geo(t)
}

type Sources struct {
	Payments string
	Sellers  string
	Geo      string
}

// Tables holds the three datasets exactly as loaded, before cleaning.
type Tables struct {
	Payments models.PaymentTable
	Sellers  models.SellerTable
	Geo      models.GeoTable
}

// LoadAll reads the three sources concurrently. Any failure aborts the others
// and no partial result is returned.
func (l *Loader) LoadAll(ctx context.Context, src Sources) (*Tables, error) {
	g, ctx := errgroup.WithContext(ctx)
	var tables Tables

	g.Go(func() error {
		t, err := l.LoadPayments(ctx, src.Payments)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		tables.Payments = t
		return nil
	})
	g.Go(func() error {
		t, err := l.LoadSellers(ctx, src.Sellers)
		if err != nil {
			return fmt.Errorf("load sellers: %w", err)
		}
		tables.Sellers = t
		return nil
	})
	g.Go(func() error {
		t, err := l.LoadGeo(ctx, src.Geo)
		if err != nil {
			return fmt.Errorf("load geolocation: %w", err)
		}
		tables.Geo = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &tables, nil
}
