package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/physics"
)

func freeParticle(t *testing.T, n int) (*dynamo.Grid, dynamo.Potential) {
	t.Helper()
	g, err := physics.NewGridPoints(0, 0.01, n)
	require.NoError(t, err)
	return g, make(dynamo.Potential, n)
}

// discreteLaplacian is the exact k-th eigenvalue of the three point operator
// with Dirichlet ends.
func discreteLaplacian(scale, dx float64, n, k int) float64 {
	return 2 * scale / (dx * dx) * (1 - math.Cos(float64(k)*math.Pi/float64(n+1)))
}

func TestSolveFreeParticle(t *testing.T) {
	for _, method := range []Method{Tridiagonal, Dense} {
		t.Run(string(method), func(t *testing.T) {
			g, v := freeParticle(t, 60)
			opts := DefaultOptions()
			opts.Method = method

			states, err := Solve(g, v, opts)
			require.NoError(t, err)
			require.Len(t, states, DefaultCount)

			for k, s := range states {
				want := discreteLaplacian(1, g.Dx, g.Len(), k+1)
				assert.InEpsilon(t, want, s.Energy, 1e-9, "state %d", k)
				assert.Len(t, s.Psi, g.Len())
			}
		})
	}
}

func TestSolveOrderingAndNorm(t *testing.T) {
	g, err := physics.NewGrid(0, 0.01, 2)
	require.NoError(t, err)
	v := physics.NewRectangularPotential(g, 0.8, 0.9, -4000)

	for _, norm := range []Normalization{Sum, Trapezoid} {
		opts := DefaultOptions()
		opts.Normalize = norm
		states, err := Solve(g, v, opts)
		require.NoError(t, err)

		for k := 1; k < len(states); k++ {
			assert.LessOrEqual(t, states[k-1].Energy, states[k].Energy)
		}
		// the trapezoid rule drops half of each end point
		tol := 1e-9
		if norm == Trapezoid {
			tol = 1e-3
		}
		for k, s := range states {
			var total float64
			for _, p := range s.Psi {
				total += p * p
			}
			assert.InDelta(t, 1, total*g.Dx, tol, "state %d (%s)", k, norm)
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	g, err := physics.NewGridPoints(-1, 0.02, 101)
	require.NoError(t, err)
	v := physics.NewRectangularPotential(g, -0.3, 0.3, -200)

	opts := DefaultOptions()
	tri, err := Solve(g, v, opts)
	require.NoError(t, err)

	opts.Method = Dense
	dense, err := Solve(g, v, opts)
	require.NoError(t, err)

	require.Len(t, dense, len(tri))
	for k := range tri {
		assert.InDelta(t, tri[k].Energy, dense[k].Energy, 1e-8)
		for j := range tri[k].Psi {
			assert.InDelta(t, tri[k].Psi[j], dense[k].Psi[j], 1e-6, "state %d point %d", k, j)
		}
	}
}

func TestBoundStates(t *testing.T) {
	g, err := physics.NewGridPoints(-5, 0.05, 201)
	require.NoError(t, err)
	v := physics.NewRectangularPotential(g, -1, 1, -50)

	opts := Options{
		Method:       Tridiagonal,
		Select:       Bound,
		Normalize:    Trapezoid,
		KineticScale: 0.5,
	}
	states, err := Solve(g, v, opts)
	require.NoError(t, err)

	// a well of depth 50 and half width 1 holds about sqrt(2*50)*2/pi + 1 = 7 states
	require.NotEmpty(t, states)
	assert.InDelta(t, 7, len(states), 1)
	for _, s := range states {
		assert.Less(t, s.Energy, 0.0)
		assert.Greater(t, s.Energy, -50.0)
	}

	ground := states[0].Psi
	mid := g.Index(0)
	for _, p := range ground {
		assert.GreaterOrEqual(t, p, -1e-9, "ground state has no node")
	}
	assert.Greater(t, ground[mid], ground[g.Index(-3)])
}

func TestSolveErrors(t *testing.T) {
	g, v := freeParticle(t, 10)

	tests := []struct {
		name string
		opts Options
		v    dynamo.Potential
		err  error
	}{
		{"unknown method", Options{Method: "qr", Select: Lowest, Count: 1, Normalize: Sum}, v, dynamo.ErrInvalidConfig},
		{"unknown selection", Options{Method: Dense, Select: "all", Normalize: Sum}, v, dynamo.ErrInvalidConfig},
		{"zero count", Options{Method: Dense, Select: Lowest, Normalize: Sum}, v, dynamo.ErrInvalidConfig},
		{"unknown norm", Options{Method: Dense, Select: Lowest, Count: 1, Normalize: "l1"}, v, dynamo.ErrInvalidConfig},
		{"short potential", DefaultOptions(), v[:5], dynamo.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(g, tt.v, tt.opts)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCountLargerThanGrid(t *testing.T) {
	g, v := freeParticle(t, 4)
	opts := DefaultOptions()
	opts.Count = 10

	states, err := Solve(g, v, opts)
	require.NoError(t, err)
	assert.Len(t, states, 4)
}

func TestHamiltonian(t *testing.T) {
	g, err := physics.NewGridPoints(0, 0.5, 3)
	require.NoError(t, err)
	diag, off := Hamiltonian(g, dynamo.Potential{0, 1, 0}, 0.5)

	assert.Equal(t, []float64{4, 5, 4}, diag)
	assert.Equal(t, []float64{-2, -2}, off)
}

func TestLowestMatchesFullQL(t *testing.T) {
	g, err := physics.NewGridPoints(0, 0.005, 300)
	require.NoError(t, err)
	v := physics.NewRectangularPotential(g, 0.6, 0.9, -800)
	diag, off := Hamiltonian(g, v, 1)

	fullValues, fullVectors, err := solveTridiagonal(diag, off)
	require.NoError(t, err)
	values, vectors, err := solveLowest(diag, off, 6)
	require.NoError(t, err)

	rows, cols := vectors.Dims()
	assert.Equal(t, g.Len(), rows)
	require.Equal(t, 6, cols)

	for k := 0; k < cols; k++ {
		// Dsteqr leaves eigenvalues ascending too
		assert.InDelta(t, fullValues[k], values[k], 1e-8, "state %d", k)
		overlap := 0.0
		for j := 0; j < rows; j++ {
			overlap += vectors.At(j, k) * fullVectors.At(j, k)
		}
		assert.InDelta(t, 1, math.Abs(overlap), 1e-9, "state %d", k)
	}
}

func TestLowestOnDefaultGrid(t *testing.T) {
	if testing.Short() {
		t.Skip("dense reference on the default grid is slow")
	}
	cfg := config.DefaultConfig()
	g, err := physics.NewGrid(cfg.Grid.XMin, cfg.Grid.Dx, cfg.Grid.Span)
	require.NoError(t, err)
	v := physics.NewRectangularPotential(g, cfg.Potential.Start, cfg.Potential.End, cfg.Potential.V0)

	opts := DefaultOptions()
	subset, err := Solve(g, v, opts)
	require.NoError(t, err)

	opts.Method = Dense
	dense, err := Solve(g, v, opts)
	require.NoError(t, err)

	require.Len(t, subset, DefaultCount)
	require.Len(t, dense, DefaultCount)
	assert.Less(t, subset[0].Energy, 0.0, "the default well binds a state")
	for k := range subset {
		assert.InDelta(t, dense[k].Energy, subset[k].Energy, 1e-6*math.Abs(dense[k].Energy)+1e-8, "state %d", k)
		for j := range subset[k].Psi {
			assert.InDelta(t, dense[k].Psi[j], subset[k].Psi[j], 1e-6, "state %d point %d", k, j)
		}
	}
}

func TestBoundUsesFullQL(t *testing.T) {
	g, err := physics.NewGridPoints(-1, 0.02, 101)
	require.NoError(t, err)
	v := physics.NewRectangularPotential(g, -0.3, 0.3, -2000)

	opts := DefaultOptions()
	opts.Select = Bound
	bound, err := Solve(g, v, opts)
	require.NoError(t, err)

	opts.Method = Dense
	dense, err := Solve(g, v, opts)
	require.NoError(t, err)

	require.Len(t, bound, len(dense))
	require.Greater(t, len(bound), DefaultCount, "selection is not capped by Count")
	for k := range bound {
		assert.InDelta(t, dense[k].Energy, bound[k].Energy, 1e-8)
	}
}
