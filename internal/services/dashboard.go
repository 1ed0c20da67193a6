package services

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"olist-dashboard/internal/chart"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
)

const defaultMemoSize = 64

type Config struct {
	TopCities  int
	SampleCap  int
	SampleSeed uint64
	// MemoSize bounds the per-selection snapshot memo; 0 disables it.
	MemoSize int
	// Zero falls back to the chart package defaults.
	HexbinGridSize  int
	HexbinMinCount  int
	DensityGridSize int
}

func DefaultConfig() Config {
	return Config{
		TopCities:  DefaultTopCities,
		SampleCap:  DefaultSampleCap,
		SampleSeed: DefaultSampleSeed,
		MemoSize:   defaultMemoSize,

		HexbinGridSize:  chart.DefaultHexbinGridSize,
		HexbinMinCount:  chart.DefaultHexbinMinCount,
		DensityGridSize: chart.DefaultDensityGridSize,
	}
}

// Snapshot is everything the dashboard draws for one filter selection.
type Snapshot struct {
	Selection       models.FilterSelection `json:"selection"`
	PaymentTypes    chart.BarSeries        `json:"payment_types"`
	TopCities       chart.BarSeries        `json:"top_cities"`
	PaymentValues   chart.ScatterSeries    `json:"payment_values"`
	SellerLocations chart.PointSeries      `json:"seller_locations"`
	SellerHexbin    chart.HexbinSeries     `json:"seller_hexbin"`
	SellerDensity   chart.DensityGrid      `json:"seller_density"`
	PaymentCount    int                    `json:"payment_count"`
	SellerCount     int                    `json:"seller_count"`
}

type baseTables struct {
	payments models.PaymentTable
	sellers  models.SellerTable
	geo      models.GeoTable
	options  models.FilterOptions
	loadedAt time.Time

	// Seller location views do not depend on the selection.
	locations chart.PointSeries
	hexbin    chart.HexbinSeries
	density   chart.DensityGrid
}

// Dashboard keeps the cleaned base tables and derives a Snapshot per selection.
// Selections are always applied to the base tables, never to a previous result.
type Dashboard struct {
	mu       sync.RWMutex
	base     *baseTables
	memo     map[string]*Snapshot
	cfg      Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	runs     atomic.Int64
	memoHits atomic.Int64
}

func NewDashboard(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		base: &baseTables{
			payments: models.PaymentTable{},
			sellers:  models.SellerTable{},
			geo:      models.GeoTable{},
			options:  models.FilterOptions{PaymentTypes: []string{}, SellerCities: []string{}},

			locations: chart.PointsFromGeo(nil),
			hexbin:    chart.HexbinFromPoints(chart.PointSeries{}, 0, 0),
			density:   chart.DensityFromPoints(chart.PointSeries{}, 0),
		},
		memo:    make(map[string]*Snapshot),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// SetData cleans the loaded tables and installs them as the new base.
func (d *Dashboard) SetData(tables *dataset.Tables) {
	payments := CleanPayments(tables.Payments)
	geo := CleanGeo(tables.Geo)
	sellers := tables.Sellers
	if sellers == nil {
		sellers = models.SellerTable{}
	}

	locations := chart.PointsFromGeo(SpatialSample(geo, d.cfg.SampleCap, d.cfg.SampleSeed))

	base := &baseTables{
		payments: payments,
		sellers:  sellers,
		geo:      geo,
		options: models.FilterOptions{
			PaymentTypes: PaymentTypeOptions(payments),
			SellerCities: SellerCityOptions(sellers),
		},
		loadedAt: time.Now(),

		locations: locations,
		hexbin: chart.HexbinFromPoints(locations,
			cmp.Or(d.cfg.HexbinGridSize, chart.DefaultHexbinGridSize),
			cmp.Or(d.cfg.HexbinMinCount, chart.DefaultHexbinMinCount)),
		density: chart.DensityFromPoints(locations,
			cmp.Or(d.cfg.DensityGridSize, chart.DefaultDensityGridSize)),
	}

	d.mu.Lock()
	d.base = base
	d.memo = make(map[string]*Snapshot)
	d.mu.Unlock()

	d.metrics.SetRows("payments", len(payments))
	d.metrics.SetRows("sellers", len(sellers))
	d.metrics.SetRows("geolocation", len(geo))

	d.logger.Info("base tables installed",
		"payments", len(payments),
		"payments_dropped", len(tables.Payments)-len(payments),
		"sellers", len(sellers),
		"geolocation", len(geo),
		"geolocation_dropped", len(tables.Geo)-len(geo),
		"sampled_locations", locations.Len(),
		"hexbin_cells", base.hexbin.Len())
}

// Load reads all sources and installs them.
func (d *Dashboard) Load(ctx context.Context, loader *dataset.Loader, src dataset.Sources) error {
	start := time.Now()
	tables, err := loader.LoadAll(ctx, src)
	if err != nil {
		return err
	}
	d.SetData(tables)
	d.logger.Info("datasets ready", "duration", time.Since(start))
	return nil
}

// Snapshot runs filter, aggregate and adapt for sel.
func (d *Dashboard) Snapshot(ctx context.Context, sel models.FilterSelection) (*Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.snapshot")
	defer span.FinishAndLog(ctx, d.logger)

	sel = normalizeSelection(sel)
	key := selectionKey(sel)

	d.mu.RLock()
	base := d.base
	cached, ok := d.memo[key]
	d.mu.RUnlock()

	d.runs.Add(1)
	if ok {
		d.memoHits.Add(1)
		span.SetTag("memo", "hit")
		d.metrics.ObservePipeline(true, 0)
		return cached, nil
	}

	start := time.Now()
	snap, err := d.compute(base, sel)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	duration := time.Since(start)
	d.metrics.ObservePipeline(false, duration)
	span.SetTag("memo", "miss")

	d.logger.DebugContext(ctx, "snapshot computed",
		"payment_types", sel.PaymentTypes,
		"seller_cities", sel.SellerCities,
		"payments", snap.PaymentCount,
		"sellers", snap.SellerCount,
		"duration", duration)

	if d.cfg.MemoSize > 0 {
		d.mu.Lock()
		// The base may have been replaced while computing.
		if d.base == base {
			if len(d.memo) >= d.cfg.MemoSize {
				clear(d.memo)
			}
			d.memo[key] = snap
		}
		d.mu.Unlock()
	}
	return snap, nil
}

func (d *Dashboard) compute(base *baseTables, sel models.FilterSelection) (*Snapshot, error) {
	payments := FilterPayments(base.payments, sel.PaymentTypes)
	sellers := FilterSellers(base.sellers, sel.SellerCities)

	points, err := Bucketize(payments)
	if err != nil {
		return nil, fmt.Errorf("bucketize payments: %w", err)
	}
	return &Snapshot{
		Selection:       sel,
		PaymentTypes:    chart.BarFromCounts(CountByCategory(payments)),
		TopCities:       chart.BarFromCounts(TopCities(sellers, d.cfg.TopCities)),
		PaymentValues:   chart.ScatterFromBuckets(points),
		SellerLocations: base.locations,
		SellerHexbin:    base.hexbin,
		SellerDensity:   base.density,
		PaymentCount:    len(payments),
		SellerCount:     len(sellers),
	}, nil
}

func (d *Dashboard) Options() models.FilterOptions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.base.options
}

// Utility method for monitoring
func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]any{
		"payments":      len(d.base.payments),
		"sellers":       len(d.base.sellers),
		"geolocation":   len(d.base.geo),
		"payment_types": len(d.base.options.PaymentTypes),
		"seller_cities": len(d.base.options.SellerCities),
		"memo_entries":  len(d.memo),
		"runs":          d.runs.Load(),
		"memo_hits":     d.memoHits.Load(),
		"loaded_at":     d.base.loadedAt,
	}
}

// normalizeSelection sorts and de-duplicates; filtering is order-insensitive,
// so equivalent selections share a memo entry.
func normalizeSelection(sel models.FilterSelection) models.FilterSelection {
	return models.FilterSelection{
		PaymentTypes: sortedUnique(sel.PaymentTypes),
		SellerCities: sortedUnique(sel.SellerCities),
	}
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// selectionKey encodes a normalized selection; JSON quoting keeps distinct
// selections apart whatever bytes the values contain.
func selectionKey(sel models.FilterSelection) string {
	key, _ := json.Marshal(sel)
	return string(key)
}
