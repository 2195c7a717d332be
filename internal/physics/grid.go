package physics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// NewGrid builds the grid starting at xMin with spacing dx and
// int(1/dx)*span points, so span is the domain length in units of 1.
func NewGrid(xMin, dx float64, span int) (*dynamo.Grid, error) {
	if dx <= 0 {
		return nil, fmt.Errorf("%w: dx must be positive, got %g", dynamo.ErrInvalidConfig, dx)
	}
	if span <= 0 {
		return nil, fmt.Errorf("%w: span must be positive, got %d", dynamo.ErrInvalidConfig, span)
	}
	return NewGridPoints(xMin, dx, int(1/dx)*span)
}

// NewGridPoints builds an n point grid x_j = xMin + j*dx.
func NewGridPoints(xMin, dx float64, n int) (*dynamo.Grid, error) {
	if dx <= 0 {
		return nil, fmt.Errorf("%w: dx must be positive, got %g", dynamo.ErrInvalidConfig, dx)
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: grid needs at least 3 points, got %d", dynamo.ErrInvalidConfig, n)
	}
	x := make([]float64, n)
	floats.Span(x, xMin, xMin+float64(n-1)*dx)
	return &dynamo.Grid{X: x, Dx: dx}, nil
}

// NewRectangularPotential is zero except v0 on the closed interval [start, end].
func NewRectangularPotential(g *dynamo.Grid, start, end, v0 float64) dynamo.Potential {
	v := make(dynamo.Potential, g.Len())
	for i, x := range g.X {
		if x >= start && x <= end {
			v[i] = v0
		}
	}
	return v
}
