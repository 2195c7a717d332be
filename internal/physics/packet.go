package physics

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Wavenumber returns the carrier wavenumber sqrt(2|e*v0|) for a packet whose
// energy is e times the barrier height.
func Wavenumber(e, v0 float64) float64 {
	return math.Sqrt(2 * math.Abs(e*v0))
}

// Amplitude is the normalisation 1/sqrt(sigma*sqrt(pi)) of a Gaussian of width sigma.
func Amplitude(sigma float64) float64 {
	return 1 / math.Sqrt(sigma*math.Sqrt(math.Pi))
}

// GaussianPacket builds psi(x) = A exp(i k x - (x-xc)^2 / (2 sigma^2)).
func GaussianPacket(g *dynamo.Grid, xc, sigma, k float64) (*dynamo.Wavefunction, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("%w: sigma must be positive, got %g", dynamo.ErrInvalidConfig, sigma)
	}

	a := complex(Amplitude(sigma), 0)
	w2 := 2 * sigma * sigma
	psi := dynamo.NewWavefunction(g.Len())
	for i, x := range g.X {
		d := x - xc
		z := a * cmplx.Exp(complex(-d*d/w2, k*x))
		psi.Re[i] = real(z)
		psi.Im[i] = imag(z)
	}
	return psi, nil
}
