package metrics

import (
	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/dynamo"
)

// Side selects which part of the split a Scattering metric reports.
type Side int

const (
	Reflected Side = iota
	Transmitted
)

// Scattering reports the reflected or transmitted probability of the last
// observed row, relative to the potential region.
type Scattering struct {
	name   string
	grid   *dynamo.Grid
	lo, hi int
	side   Side
	last   float64
}

func NewReflection(g *dynamo.Grid, v dynamo.Potential) *Scattering {
	return newScattering("reflection", g, v, Reflected)
}

func NewTransmission(g *dynamo.Grid, v dynamo.Potential) *Scattering {
	return newScattering("transmission", g, v, Transmitted)
}

func newScattering(name string, g *dynamo.Grid, v dynamo.Potential, side Side) *Scattering {
	lo, hi := v.Region()
	return &Scattering{name: name, grid: g, lo: lo, hi: hi, side: side}
}

func (s *Scattering) Name() string { return s.name }

func (s *Scattering) Observe(step int, row []float64) {
	split := analysis.SplitAt(s.grid, row, s.lo, s.hi)
	if s.side == Transmitted {
		s.last = split.Transmitted
	} else {
		s.last = split.Reflected
	}
}

func (s *Scattering) Value() float64 { return s.last }

func (s *Scattering) Reset() { s.last = 0 }

// Position is <x> of the last observed row.
type Position struct {
	grid *dynamo.Grid
	last float64
}

func NewPosition(g *dynamo.Grid) *Position { return &Position{grid: g} }

func (p *Position) Name() string { return "position" }

func (p *Position) Observe(step int, row []float64) {
	p.last = analysis.MeanPosition(p.grid, row)
}

func (p *Position) Value() float64 { return p.last }

func (p *Position) Reset() { p.last = 0 }
