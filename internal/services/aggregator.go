package services

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const (
	DefaultTopCities  = 10
	DefaultSampleCap  = 5000
	DefaultSampleSeed = 42
)

// Lower bounds of each value bucket; the last bucket has no upper bound.
var bucketLowerBounds = [...]float64{0, 200, 600, 1200, 5000, 10000}

// CountByCategory counts payments per type, most frequent first. Ties keep the
// order in which the types were first seen.
func CountByCategory(payments models.PaymentTable) []models.CategoryCount {
	return countInOrder(len(payments), func(i int) string { return payments[i].PaymentType })
}

// TopCities counts sellers per city and keeps the n most frequent.
func TopCities(sellers models.SellerTable, n int) []models.CategoryCount {
	if n <= 0 {
		return []models.CategoryCount{}
	}
	counts := countInOrder(len(sellers), func(i int) string { return sellers[i].City })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func countInOrder(n int, key func(int) string) []models.CategoryCount {
	index := make(map[string]int)
	result := make([]models.CategoryCount, 0)
	for i := 0; i < n; i++ {
		k := key(i)
		pos, ok := index[k]
		if !ok {
			pos = len(result)
			index[k] = pos
			result = append(result, models.CategoryCount{Category: k})
		}
		result[pos].Count++
	}

	slices.SortStableFunc(result, func(a, b models.CategoryCount) int {
		if a.Count > b.Count {
			return -1
		}
		if a.Count < b.Count {
			return 1
		}
		return 0
	})
	return result
}

// BucketFor classifies a non-negative value into its half-open range.
func BucketFor(value float64) (models.ValueBucket, error) {
	if value < 0 || math.IsNaN(value) {
		return 0, apperrors.Validation(fmt.Sprintf("payment value %v cannot be bucketed", value))
	}
	bucket := models.BucketUnder200
	for i, low := range bucketLowerBounds {
		if value >= low {
			bucket = models.ValueBucket(i)
		}
	}
	return bucket, nil
}

// Bucketize assigns every payment, in order, to its value bucket.
func Bucketize(payments models.PaymentTable) ([]models.BucketedPoint, error) {
	points := make([]models.BucketedPoint, 0, len(payments))
	for _, p := range payments {
		bucket, err := BucketFor(p.PaymentValue)
		if err != nil {
			return nil, fmt.Errorf("payment row %d: %w", p.Index, err)
		}
		points = append(points, models.BucketedPoint{
			Index:  p.Index,
			Value:  p.PaymentValue,
			Bucket: bucket,
			Label:  bucket.String(),
		})
	}
	return points, nil
}

// SpatialSample returns geo unchanged when it holds at most limit rows. Otherwise
// it picks exactly limit rows uniformly at random from a PRNG seeded with seed,
// so the same input always yields the same sample. Picked rows keep source order.
func SpatialSample(geo models.GeoTable, limit int, seed uint64) models.GeoTable {
	if limit < 0 {
		limit = 0
	}
	if len(geo) <= limit {
		return geo
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	idx := make([]int, len(geo))
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher-Yates: the first limit slots end up a uniform sample.
	for i := 0; i < limit; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	picked := idx[:limit]
	slices.Sort(picked)

	out := make(models.GeoTable, limit)
	for i, k := range picked {
		out[i] = geo[k]
	}
	return out
}

// PaymentTypeOptions lists distinct payment types in first-seen order.
func PaymentTypeOptions(payments models.PaymentTable) []string {
	return distinct(len(payments), func(i int) string { return payments[i].PaymentType })
}

// SellerCityOptions lists distinct seller cities in first-seen order.
func SellerCityOptions(sellers models.SellerTable) []string {
	return distinct(len(sellers), func(i int) string { return sellers[i].City })
}

func distinct(n int, key func(int) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := 0; i < n; i++ {
		k := key(i)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
