// Package chart turns aggregates into axis-ready series. It knows nothing about
// how the series are drawn.
package chart

import "olist-dashboard/internal/models"

type BarSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

func (s BarSeries) Len() int { return len(s.Labels) }

type ScatterSeries struct {
	X       []int                `json:"x"`
	Y       []float64            `json:"y"`
	Buckets []models.ValueBucket `json:"buckets"`
	Labels  []string             `json:"labels"`
}

func (s ScatterSeries) Len() int { return len(s.X) }

// PointSeries holds coordinate pairs with longitude on X and latitude on Y.
type PointSeries struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

func (s PointSeries) Len() int { return len(s.X) }

func BarFromCounts(counts []models.CategoryCount) BarSeries {
	s := BarSeries{
		Labels: make([]string, len(counts)),
		Values: make([]int, len(counts)),
	}
	for i, c := range counts {
		s.Labels[i] = c.Category
		s.Values[i] = c.Count
	}
	return s
}

func ScatterFromBuckets(points []models.BucketedPoint) ScatterSeries {
	s := ScatterSeries{
		X:       make([]int, len(points)),
		Y:       make([]float64, len(points)),
		Buckets: make([]models.ValueBucket, len(points)),
		Labels:  make([]string, len(points)),
	}
	for i, p := range points {
		s.X[i] = p.Index
		s.Y[i] = p.Value
		s.Buckets[i] = p.Bucket
		s.Labels[i] = p.Label
	}
	return s
}

func PointsFromGeo(geo models.GeoTable) PointSeries {
	s := PointSeries{
		X: make([]float64, len(geo)),
		Y: make([]float64, len(geo)),
	}
	for i, g := range geo {
		s.X[i] = g.Longitude
		s.Y[i] = g.Latitude
	}
	return s
}
