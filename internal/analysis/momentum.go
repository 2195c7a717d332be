package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Spectrum is a momentum distribution: P[i] is the probability density at
// wavenumber K[i]. K is ascending.
type Spectrum struct {
	K []float64
	P []float64
}

// Momentum returns |phi(k)|^2 of psi, normalised so the distribution
// integrates to one over k. Resolution is 2*pi/(N*dx).
func Momentum(g *dynamo.Grid, psi *dynamo.Wavefunction) Spectrum {
	n := psi.Len()
	if n == 0 {
		return Spectrum{}
	}
	phi := fft.FFT(psi.Complex())
	dk := 2 * math.Pi / (float64(n) * g.Dx)

	dist := Spectrum{K: make([]float64, n), P: make([]float64, n)}
	for i := 0; i < n; i++ {
		freq := i - n/2
		m := (freq%n + n) % n
		dist.K[i] = float64(freq) * dk
		a := cmplx.Abs(phi[m])
		dist.P[i] = a * a
	}

	if total := floats.Sum(dist.P) * dk; total > 0 {
		floats.Scale(1/total, dist.P)
	}
	return dist
}

// Peak returns the wavenumber carrying the largest probability density.
func (s Spectrum) Peak() float64 {
	if len(s.P) == 0 {
		return math.NaN()
	}
	return s.K[floats.MaxIdx(s.P)]
}

// Mean returns <k>.
func (s Spectrum) Mean() float64 {
	total := floats.Sum(s.P)
	if total == 0 {
		return math.NaN()
	}
	return floats.Dot(s.K, s.P) / total
}

// PowerSpectrum returns the one sided amplitude spectrum of a real series,
// such as the norm of successive frames.
func PowerSpectrum(data []float64) []float64 {
	out := fft.FFTReal(data)
	ps := make([]float64, len(out)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(out[i])
	}
	return ps
}
