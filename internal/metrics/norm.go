package metrics

import (
	"math"

	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/dynamo"
)

// Norm is the probability of the last observed row.
type Norm struct {
	name string
	grid *dynamo.Grid
	last float64
}

func NewNorm(g *dynamo.Grid) *Norm {
	return &Norm{name: "norm", grid: g}
}

func (n *Norm) Name() string { return n.name }

func (n *Norm) Observe(step int, row []float64) {
	n.last = analysis.Norm(n.grid, row)
}

func (n *Norm) Value() float64 { return n.last }

func (n *Norm) Reset() { n.last = 0 }

// NormDrift tracks the largest relative departure of the probability from
// that of the first recorded step. Row 0 is the exact |psi|^2 and is skipped,
// since the staggered density of later rows differs from it at O(dt).
type NormDrift struct {
	name     string
	grid     *dynamo.Grid
	initial  float64
	maxDrift float64
	samples  int
}

func NewNormDrift(g *dynamo.Grid) *NormDrift {
	return &NormDrift{
		name: "norm_drift",
		grid: g,
	}
}

func (d *NormDrift) Name() string { return d.name }

func (d *NormDrift) Observe(step int, row []float64) {
	if step == 0 {
		return
	}
	norm := analysis.Norm(d.grid, row)
	if d.samples == 0 {
		d.initial = norm
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(norm-d.initial) / math.Abs(d.initial)
		if math.IsNaN(drift) {
			drift = math.Inf(1)
		}
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *NormDrift) Value() float64 {
	return d.maxDrift
}

func (d *NormDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
