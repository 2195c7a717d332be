package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Norm integrates a density row over the grid.
func Norm(g *dynamo.Grid, row []float64) float64 {
	return floats.Sum(row) * g.Dx
}

// MeanPosition returns <x> of a density row, normalised by its own norm.
func MeanPosition(g *dynamo.Grid, row []float64) float64 {
	total := floats.Sum(row)
	if total == 0 {
		return math.NaN()
	}
	return floats.Dot(g.X, row) / total
}

// Spread returns the standard deviation of x under a density row.
func Spread(g *dynamo.Grid, row []float64) float64 {
	total := floats.Sum(row)
	if total == 0 {
		return math.NaN()
	}
	mean := floats.Dot(g.X, row) / total
	var m2 float64
	for j, x := range g.X {
		d := x - mean
		m2 += d * d * row[j]
	}
	return math.Sqrt(math.Max(m2/total, 0))
}

// Split is the probability found left of, inside and right of a potential
// region.
type Split struct {
	Reflected   float64
	Inside      float64
	Transmitted float64
}

// SplitAt partitions the probability of row around the grid indices [lo, hi].
// A region of (-1, -1) counts everything as reflected.
func SplitAt(g *dynamo.Grid, row []float64, lo, hi int) Split {
	if lo < 0 || hi < lo {
		return Split{Reflected: Norm(g, row)}
	}
	hi = min(hi, len(row)-1)
	return Split{
		Reflected:   floats.Sum(row[:lo]) * g.Dx,
		Inside:      floats.Sum(row[lo:hi+1]) * g.Dx,
		Transmitted: floats.Sum(row[hi+1:]) * g.Dx,
	}
}

// SplitPotential partitions row around the non zero region of v.
func SplitPotential(g *dynamo.Grid, v dynamo.Potential, row []float64) Split {
	lo, hi := v.Region()
	return SplitAt(g, row, lo, hi)
}
