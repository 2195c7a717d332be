package solver

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Method selects the eigen decomposition backend.
type Method string

const (
	Tridiagonal Method = "tridiagonal"
	Dense       Method = "dense"
)

// Selection decides which eigenpairs are returned.
type Selection string

const (
	Lowest Selection = "lowest"
	Bound  Selection = "bound"
)

// Normalization picks the quadrature used to scale each state to unit norm.
type Normalization string

const (
	Sum       Normalization = "sum"
	Trapezoid Normalization = "trapezoid"
)

const DefaultCount = 5

type Options struct {
	Method    Method
	Select    Selection
	Count     int
	Normalize Normalization
	// KineticScale is hbar^2/2m. Zero means 1, the propagator's units.
	KineticScale float64
}

func DefaultOptions() Options {
	return Options{
		Method:       Tridiagonal,
		Select:       Lowest,
		Count:        DefaultCount,
		Normalize:    Sum,
		KineticScale: 1,
	}
}

func (o Options) Validate() error {
	switch o.Method {
	case Tridiagonal, Dense:
	default:
		return fmt.Errorf("%w: unknown solver %q", dynamo.ErrInvalidConfig, o.Method)
	}
	switch o.Select {
	case Lowest:
		if o.Count <= 0 {
			return fmt.Errorf("%w: state count must be positive, got %d", dynamo.ErrInvalidConfig, o.Count)
		}
	case Bound:
	default:
		return fmt.Errorf("%w: unknown state selection %q", dynamo.ErrInvalidConfig, o.Select)
	}
	switch o.Normalize {
	case Sum, Trapezoid:
	default:
		return fmt.Errorf("%w: unknown normalization %q", dynamo.ErrInvalidConfig, o.Normalize)
	}
	if o.KineticScale < 0 {
		return fmt.Errorf("%w: kinetic scale must not be negative", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Solve diagonalises the finite difference Hamiltonian of g and v and returns
// the selected eigenstates, ascending by energy, each normalised to unit
// probability.
func Solve(g *dynamo.Grid, v dynamo.Potential, opts Options) ([]dynamo.Eigenstate, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := g.Len()
	if len(v) != n {
		return nil, fmt.Errorf("%w: potential has %d points, grid %d", dynamo.ErrDimensionMismatch, len(v), n)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 grid points", dynamo.ErrInvalidConfig)
	}

	start := time.Now()
	diag, off := Hamiltonian(g, v, opts.KineticScale)

	var (
		values  []float64
		vectors *mat.Dense
		err     error
	)
	switch {
	case opts.Method == Dense:
		values, vectors, err = solveDense(diag, off)
	case opts.Select == Lowest:
		values, vectors, err = solveLowest(diag, off, min(opts.Count, n))
	default:
		values, vectors, err = solveTridiagonal(diag, off)
	}
	if err != nil {
		return nil, err
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	var picked []int
	switch opts.Select {
	case Bound:
		for _, i := range order {
			if values[i] < 0 {
				picked = append(picked, i)
			}
		}
	default:
		picked = order[:min(opts.Count, len(order))]
	}

	states := make([]dynamo.Eigenstate, len(picked))
	for k, i := range picked {
		psi := mat.Col(nil, i, vectors)
		if err := normalize(g, psi, opts.Normalize); err != nil {
			return nil, err
		}
		states[k] = dynamo.Eigenstate{Energy: values[i], Psi: psi}
	}

	slog.Debug("stationary states solved", "method", opts.Method, "n", n, "states", len(states), "elapsed", time.Since(start))
	return states, nil
}

// Hamiltonian returns the diagonal and off diagonal of the discretised
// operator -c d2/dx2 + V with c the kinetic scale.
func Hamiltonian(g *dynamo.Grid, v dynamo.Potential, scale float64) (diag, off []float64) {
	if scale == 0 {
		scale = 1
	}
	n := g.Len()
	kin := scale / (g.Dx * g.Dx)

	diag = make([]float64, n)
	for j := range diag {
		diag[j] = 2*kin + v[j]
	}
	off = make([]float64, n-1)
	for j := range off {
		off[j] = -kin
	}
	return diag, off
}

func solveTridiagonal(diag, off []float64) ([]float64, *mat.Dense, error) {
	n := len(diag)
	d := append([]float64(nil), diag...)
	e := append([]float64(nil), off...)
	z := make([]float64, n*n)
	work := make([]float64, max(1, 2*n-2))

	var impl gonum.Implementation
	if ok := impl.Dsteqr(lapack.EVTridiag, n, d, e, z, n, work); !ok {
		return nil, nil, fmt.Errorf("%w: tridiagonal QL iteration", dynamo.ErrSolverNoConvergence)
	}
	return d, mat.NewDense(n, n, z), nil
}

// solveLowest returns only the count lowest eigenpairs. All eigenvalues come
// from the root free QL iteration, which needs no vector storage; each wanted
// vector is then recovered by shifted inverse iteration.
func solveLowest(diag, off []float64, count int) ([]float64, *mat.Dense, error) {
	n := len(diag)
	d := append([]float64(nil), diag...)
	e := append([]float64(nil), off...)

	var impl gonum.Implementation
	if ok := impl.Dsterf(n, d, e); !ok {
		return nil, nil, fmt.Errorf("%w: tridiagonal eigenvalues", dynamo.ErrSolverNoConvergence)
	}
	values := d[:count]

	scale := floats.Norm(diag, math.Inf(1)) + 2*floats.Norm(off, math.Inf(1))
	vectors := mat.NewDense(n, count, nil)
	rng := rand.New(rand.NewSource(1))
	x := make([]float64, n)
	for k, lambda := range values {
		for j := range x {
			x[j] = rng.Float64() - 0.5
		}
		if err := inverseIteration(diag, off, lambda, scale, x, vectors, k); err != nil {
			return nil, nil, fmt.Errorf("state %d: %w", k, err)
		}
		vectors.SetCol(k, x)
	}
	return values, vectors, nil
}

const maxInverseIterations = 10

// inverseIteration refines x towards the eigenvector of lambda, keeping it
// orthogonal to the first k columns of found.
func inverseIteration(diag, off []float64, lambda, scale float64, x []float64, found *mat.Dense, k int) error {
	n := len(diag)
	dl := make([]float64, n-1)
	du := make([]float64, n-1)
	dd := make([]float64, n)
	prev := make([]float64, n)
	var impl gonum.Implementation

	delta := 64 * 0x1p-52 * scale
	for iter := 0; iter < maxInverseIterations; iter++ {
		for {
			copy(dl, off)
			copy(du, off)
			for j := range dd {
				dd[j] = diag[j] - (lambda + delta)
			}
			copy(prev, x)
			if impl.Dgtsv(n, 1, dl, dd, du, x, 1) {
				break
			}
			// exactly singular at this shift
			copy(x, prev)
			delta *= 10
		}

		for c := 0; c < k; c++ {
			col := mat.Col(nil, c, found)
			floats.AddScaled(x, -floats.Dot(x, col), col)
		}
		norm := floats.Norm(x, 2)
		if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
			return fmt.Errorf("%w: inverse iteration collapsed", dynamo.ErrSolverNoConvergence)
		}
		floats.Scale(1/norm, x)

		if residual(diag, off, lambda, x) <= 1e-12*scale {
			return nil
		}
	}
	return fmt.Errorf("%w: inverse iteration did not settle after %d sweeps", dynamo.ErrSolverNoConvergence, maxInverseIterations)
}

// residual is the max norm of (H - lambda) x.
func residual(diag, off []float64, lambda float64, x []float64) float64 {
	n := len(x)
	var r float64
	for j := 0; j < n; j++ {
		hx := (diag[j] - lambda) * x[j]
		if j > 0 {
			hx += off[j-1] * x[j-1]
		}
		if j+1 < n {
			hx += off[j] * x[j+1]
		}
		r = math.Max(r, math.Abs(hx))
	}
	return r
}

func solveDense(diag, off []float64) ([]float64, *mat.Dense, error) {
	n := len(diag)
	h := mat.NewSymDense(n, nil)
	for j := 0; j < n; j++ {
		h.SetSym(j, j, diag[j])
		if j+1 < n {
			h.SetSym(j, j+1, off[j])
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(h, true); !ok {
		return nil, nil, fmt.Errorf("%w: symmetric eigen decomposition", dynamo.ErrSolverNoConvergence)
	}
	var vectors mat.Dense
	es.VectorsTo(&vectors)
	return es.Values(nil), &vectors, nil
}

func normalize(g *dynamo.Grid, psi []float64, method Normalization) error {
	sq := make([]float64, len(psi))
	floats.MulTo(sq, psi, psi)

	var norm float64
	if method == Trapezoid {
		norm = integrate.Trapezoidal(g.X, sq)
	} else {
		norm = floats.Sum(sq) * g.Dx
	}
	if norm <= 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return fmt.Errorf("%w: eigenvector has norm %g", dynamo.ErrSolverNoConvergence, norm)
	}
	scale := 1 / math.Sqrt(norm)
	if leadingSign(psi) < 0 {
		scale = -scale
	}
	floats.Scale(scale, psi)
	return nil
}

// leadingSign is the sign of the leftmost lobe of psi. Returned states
// always start positive.
func leadingSign(psi []float64) float64 {
	peak := math.Max(floats.Max(psi), -floats.Min(psi))
	for _, p := range psi {
		if math.Abs(p) > 1e-3*peak {
			return math.Copysign(1, p)
		}
	}
	return 1
}
