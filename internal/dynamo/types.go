package dynamo

import "math"

// Grid is the uniform spatial discretisation x_j = X[0] + j*Dx.
type Grid struct {
	X  []float64
	Dx float64
}

func (g *Grid) Len() int { return len(g.X) }

// Index returns the grid index closest to position x, clamped to the grid.
func (g *Grid) Index(x float64) int {
	if len(g.X) == 0 {
		return 0
	}
	i := int(math.Round((x - g.X[0]) / g.Dx))
	if i < 0 {
		return 0
	}
	if i >= len(g.X) {
		return len(g.X) - 1
	}
	return i
}

// Potential is V(x) sampled on a Grid.
type Potential []float64

// Region returns the first and last index where the potential is non-zero,
// or (-1, -1) when it vanishes everywhere.
func (v Potential) Region() (int, int) {
	lo, hi := -1, -1
	for i, val := range v {
		if val != 0 {
			if lo < 0 {
				lo = i
			}
			hi = i
		}
	}
	return lo, hi
}

// Wavefunction holds the real and imaginary parts of psi. Under the leapfrog
// scheme the two halves live half a step apart.
type Wavefunction struct {
	Re []float64
	Im []float64
}

func NewWavefunction(n int) *Wavefunction {
	return &Wavefunction{Re: make([]float64, n), Im: make([]float64, n)}
}

func (w *Wavefunction) Len() int { return len(w.Re) }

func (w *Wavefunction) Clone() *Wavefunction {
	c := NewWavefunction(len(w.Re))
	copy(c.Re, w.Re)
	copy(c.Im, w.Im)
	return c
}

// Complex returns psi as a complex slice.
func (w *Wavefunction) Complex() []complex128 {
	out := make([]complex128, len(w.Re))
	for i := range w.Re {
		out[i] = complex(w.Re[i], w.Im[i])
	}
	return out
}

// Density returns |psi|^2 = re^2 + im^2.
func (w *Wavefunction) Density() []float64 {
	out := make([]float64, len(w.Re))
	for i := range w.Re {
		out[i] = w.Re[i]*w.Re[i] + w.Im[i]*w.Im[i]
	}
	return out
}

func (w *Wavefunction) IsValid() bool {
	for i := range w.Re {
		if math.IsNaN(w.Re[i]) || math.IsInf(w.Re[i], 0) || math.IsNaN(w.Im[i]) || math.IsInf(w.Im[i], 0) {
			return false
		}
	}
	return true
}

// Matrix is a dense row-major rows x cols block of float64.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Row returns a view of row i; writes through it modify the matrix.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// History is the density recorded at every propagation step (nt x nx).
type History struct {
	*Matrix
}

func NewHistory(steps, n int) *History {
	return &History{NewMatrix(steps, n)}
}

// Frames is the strided subset of a History used for rendering.
type Frames struct {
	*Matrix
	// Steps[k] is the propagation step copied into frame k, -1 if unfilled.
	Steps []int
}

func NewFrames(count, n int) *Frames {
	steps := make([]int, count)
	for i := range steps {
		steps[i] = -1
	}
	return &Frames{Matrix: NewMatrix(count, n), Steps: steps}
}

func (f *Frames) Len() int { return f.Rows }

// Filled reports how many leading frame slots hold a recorded row.
func (f *Frames) Filled() int {
	n := 0
	for _, s := range f.Steps {
		if s < 0 {
			break
		}
		n++
	}
	return n
}

// Eigenstate is a normalised stationary state of the discretised Hamiltonian.
type Eigenstate struct {
	Energy float64
	Psi    []float64
}

// Observer receives every recorded density row. Row 0 is the initial
// |psi|^2; later rows are only delivered on steps that record density. The
// slice is reused between calls.
type Observer interface {
	OnRow(step int, row []float64)
}

type ObserverFunc func(step int, row []float64)

func (f ObserverFunc) OnRow(step int, row []float64) { f(step, row) }

// Metric summarises a run from the rows it observes.
type Metric interface {
	Name() string
	Observe(step int, row []float64)
	Value() float64
	Reset()
}

type Result struct {
	Frames     *Frames
	History    *History
	Final      *Wavefunction
	Metrics    map[string]float64
	StepsTaken int
	Unstable   bool
}
