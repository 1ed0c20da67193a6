package chart

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultHexbinGridSize  = 50
	DefaultHexbinMinCount  = 1
	DefaultDensityGridSize = 40

	// densityCut extends the density grid this many bandwidths past the data.
	densityCut = 3.0
	// densitySmoothing scales Scott's rule for a smoother outline.
	densitySmoothing = 2.0
	// fallbackBandwidth is used on an axis whose points do not spread.
	fallbackBandwidth = 0.1
)

// HexbinSeries holds the occupied cells of a hexagonal binning. X and Y are
// cell centres; Width and Height give the cell pitch in data units. A hexagon
// has vertices at (±Width/2, ±Height/6) and (0, ±Height/3) around its centre.
type HexbinSeries struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Counts []int     `json:"counts"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

func (s HexbinSeries) Len() int { return len(s.X) }

// HexbinFromPoints bins pts into a hexagonal grid gridsize cells wide and
// keeps cells holding at least mincnt points. Cells come out in a fixed order:
// the corner lattice first, then the offset lattice, each column by column.
func HexbinFromPoints(pts PointSeries, gridsize, mincnt int) HexbinSeries {
	out := HexbinSeries{X: []float64{}, Y: []float64{}, Counts: []int{}}
	if pts.Len() == 0 || gridsize <= 0 {
		return out
	}
	if mincnt < 1 {
		mincnt = 1
	}

	nx := gridsize
	ny := max(int(float64(nx)/math.Sqrt(3)), 1)

	xmin, xmax := nonSingular(floats.Min(pts.X), floats.Max(pts.X))
	ymin, ymax := nonSingular(floats.Min(pts.Y), floats.Max(pts.Y))
	pad := 1e-9 * (xmax - xmin)
	xmin -= pad
	xmax += pad
	sx := (xmax - xmin) / float64(nx)
	sy := (ymax - ymin) / float64(ny)

	nx1, ny1 := nx+1, ny+1
	lattice1 := make([]int, nx1*ny1)
	lattice2 := make([]int, nx*ny)

	for i := range pts.X {
		ix := (pts.X[i] - xmin) / sx
		iy := (pts.Y[i] - ymin) / sy
		ix1, iy1 := math.Round(ix), math.Round(iy)
		ix2, iy2 := math.Floor(ix), math.Floor(iy)

		d1 := (ix-ix1)*(ix-ix1) + 3*(iy-iy1)*(iy-iy1)
		d2 := (ix-ix2-0.5)*(ix-ix2-0.5) + 3*(iy-iy2-0.5)*(iy-iy2-0.5)

		if d1 < d2 {
			c, r := int(ix1), int(iy1)
			if c >= 0 && c < nx1 && r >= 0 && r < ny1 {
				lattice1[c*ny1+r]++
			}
		} else {
			c, r := int(ix2), int(iy2)
			if c >= 0 && c < nx && r >= 0 && r < ny {
				lattice2[c*ny+r]++
			}
		}
	}

	emit := func(counts []int, rows int, offset float64) {
		for idx, n := range counts {
			if n < mincnt {
				continue
			}
			c, r := idx/rows, idx%rows
			out.X = append(out.X, xmin+(float64(c)+offset)*sx)
			out.Y = append(out.Y, ymin+(float64(r)+offset)*sy)
			out.Counts = append(out.Counts, n)
		}
	}
	emit(lattice1, ny1, 0)
	emit(lattice2, ny, 0.5)

	out.Width = sx
	out.Height = sy
	return out
}

// nonSingular widens an empty range so a grid can be laid over it.
func nonSingular(lo, hi float64) (float64, float64) {
	if hi-lo > 1e-12*math.Max(math.Abs(lo), math.Abs(hi)) {
		return lo, hi
	}
	if lo == 0 && hi == 0 {
		return -0.1, 0.1
	}
	return lo - 0.1*math.Abs(lo), hi + 0.1*math.Abs(hi)
}

// DensityGrid is a kernel density estimate sampled on a regular grid.
// Z[j][i] is the density at (X[i], Y[j]); Max is the largest value in Z.
type DensityGrid struct {
	X   []float64   `json:"x"`
	Y   []float64   `json:"y"`
	Z   [][]float64 `json:"z"`
	Max float64     `json:"max"`
}

func (g DensityGrid) Len() int { return len(g.X) * len(g.Y) }

// DensityFromPoints estimates the density of pts with a Gaussian product
// kernel and twice Scott's rule bandwidth, evaluated on a size by size grid that
// reaches three bandwidths past the data on each side.
func DensityFromPoints(pts PointSeries, size int) DensityGrid {
	out := DensityGrid{X: []float64{}, Y: []float64{}, Z: [][]float64{}}
	n := pts.Len()
	if n == 0 || size < 2 {
		return out
	}

	hx := bandwidth(pts.X)
	hy := bandwidth(pts.Y)

	out.X = axis(floats.Min(pts.X)-densityCut*hx, floats.Max(pts.X)+densityCut*hx, size)
	out.Y = axis(floats.Min(pts.Y)-densityCut*hy, floats.Max(pts.Y)+densityCut*hy, size)

	// The kernel is separable, so each axis is evaluated once per point.
	kx := kernelRows(out.X, pts.X, hx)
	ky := kernelRows(out.Y, pts.Y, hy)

	norm := 1 / (float64(n) * 2 * math.Pi * hx * hy)
	out.Z = make([][]float64, size)
	for j := range out.Y {
		row := make([]float64, size)
		for i := range out.X {
			row[i] = floats.Dot(kx[i], ky[j]) * norm
		}
		out.Z[j] = row
		out.Max = math.Max(out.Max, slices.Max(row))
	}
	return out
}

func bandwidth(values []float64) float64 {
	if len(values) < 2 {
		return fallbackBandwidth
	}
	_, std := stat.MeanStdDev(values, nil)
	h := densitySmoothing * std * math.Pow(float64(len(values)), -1.0/6)
	if h <= 0 || math.IsNaN(h) {
		return fallbackBandwidth
	}
	return h
}

func axis(lo, hi float64, size int) []float64 {
	out := make([]float64, size)
	floats.Span(out, lo, hi)
	return out
}

// kernelRows returns, for every grid position, the unnormalized Gaussian
// weight of each point.
func kernelRows(grid, values []float64, h float64) [][]float64 {
	rows := make([][]float64, len(grid))
	for i, g := range grid {
		row := make([]float64, len(values))
		for k, v := range values {
			u := (g - v) / h
			row[k] = math.Exp(-0.5 * u * u)
		}
		rows[i] = row
	}
	return rows
}
