package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wavesim/internal/dynamo"
)

func TestNewGridDefaults(t *testing.T) {
	g, err := NewGrid(0, 0.001, 2)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}

	if g.Len() != 2000 {
		t.Fatalf("expected nx=2000, got %d", g.Len())
	}
	if g.X[0] != 0 {
		t.Errorf("expected x[0]=0, got %g", g.X[0])
	}
	if math.Abs(g.X[1999]-1.999) > 1e-12 {
		t.Errorf("expected x[nx-1]=1.999, got %g", g.X[1999])
	}
	if math.Abs(g.X[500]-0.5) > 1e-12 {
		t.Errorf("expected x[500]=0.5, got %g", g.X[500])
	}
}

func TestNewGridInvalid(t *testing.T) {
	tests := []struct {
		name string
		dx   float64
		span int
	}{
		{"zero dx", 0, 2},
		{"negative dx", -0.001, 2},
		{"zero span", 0.001, 0},
		{"too coarse", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(0, tt.dx, tt.span)
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRectangularPotential(t *testing.T) {
	g, _ := NewGrid(0, 0.001, 2)
	v := NewRectangularPotential(g, 0.8, 0.9, -4000)

	if v[500] != 0 || v[1500] != 0 {
		t.Error("potential should vanish outside the barrier")
	}
	if v[850] != -4000 {
		t.Errorf("expected v0 inside the barrier, got %g", v[850])
	}

	count := 0
	for _, val := range v {
		if val != 0 {
			count++
		}
	}
	if count < 99 || count > 101 {
		t.Errorf("expected ~101 barrier points, got %d", count)
	}

	lo, hi := v.Region()
	if math.Abs(g.X[lo]-0.8) > 0.0015 || math.Abs(g.X[hi]-0.9) > 0.0015 {
		t.Errorf("barrier spans [%g, %g]", g.X[lo], g.X[hi])
	}
}

func TestWavenumber(t *testing.T) {
	tests := []struct {
		e, v0, want float64
	}{
		{5, -4000, 200},
		{5, 4000, 200},
		{0, -4000, 0},
		{5, 0, 0},
		{-0.5, 100, 10},
	}

	for _, tt := range tests {
		got := Wavenumber(tt.e, tt.v0)
		if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Wavenumber(%g, %g) = %g, want %g", tt.e, tt.v0, got, tt.want)
		}
	}
}

func TestGaussianPacketNormalised(t *testing.T) {
	g, _ := NewGrid(0, 0.001, 2)
	psi, err := GaussianPacket(g, 0.6, 0.05, Wavenumber(5, -4000))
	if err != nil {
		t.Fatalf("GaussianPacket failed: %v", err)
	}

	norm := 0.0
	for _, d := range psi.Density() {
		norm += d
	}
	norm *= g.Dx

	if math.Abs(norm-1) > 1e-3 {
		t.Errorf("expected norm ~1, got %.6f", norm)
	}
}

func TestGaussianPacketShape(t *testing.T) {
	g, _ := NewGrid(0, 0.001, 2)
	k := 200.0
	psi, _ := GaussianPacket(g, 0.6, 0.05, k)

	a := Amplitude(0.05)
	i := 600
	x := g.X[i]
	if math.Abs(psi.Re[i]-a*math.Cos(k*x)) > 1e-9 {
		t.Errorf("re at centre = %g, want %g", psi.Re[i], a*math.Cos(k*x))
	}
	if math.Abs(psi.Im[i]-a*math.Sin(k*x)) > 1e-9 {
		t.Errorf("im at centre = %g, want %g", psi.Im[i], a*math.Sin(k*x))
	}

	if math.Abs(psi.Re[0]) > 1e-20 || math.Abs(psi.Im[g.Len()-1]) > 1e-20 {
		t.Error("packet should be negligible at the domain edges")
	}
}

func TestGaussianPacketStationary(t *testing.T) {
	g, _ := NewGrid(0, 0.001, 2)
	psi, err := GaussianPacket(g, 0.6, 0.05, Wavenumber(0, -4000))
	if err != nil {
		t.Fatalf("GaussianPacket failed: %v", err)
	}
	for i, im := range psi.Im {
		if im != 0 {
			t.Fatalf("k=0 packet should be real, im[%d]=%g", i, im)
		}
	}
}

func TestGaussianPacketInvalidSigma(t *testing.T) {
	g, _ := NewGrid(0, 0.001, 2)
	for _, sigma := range []float64{0, -0.1} {
		if _, err := GaussianPacket(g, 0.6, sigma, 1); !errors.Is(err, dynamo.ErrInvalidConfig) {
			t.Errorf("sigma=%g: expected ErrInvalidConfig, got %v", sigma, err)
		}
	}
}
