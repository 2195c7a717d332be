package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/integrators"
	"github.com/san-kum/wavesim/internal/physics"
	"github.com/san-kum/wavesim/internal/sim"
)

var _ = Describe("ascending step scenario", func() {
	const (
		dx    = 0.001
		dt    = 1e-7
		xc    = 0.6
		sigma = 0.05
		v0    = -4000.0
		e     = 5.0
	)

	var (
		grid *dynamo.Grid
		v    dynamo.Potential
		psi0 *dynamo.Wavefunction
	)

	BeforeEach(func() {
		var err error
		grid, err = physics.NewGrid(0, dx, 2)
		Expect(err).NotTo(HaveOccurred())
		v = physics.NewRectangularPotential(grid, 0.8, 0.9, v0)
		psi0, err = physics.GaussianPacket(grid, xc, sigma, physics.Wavenumber(e, v0))
		Expect(err).NotTo(HaveOccurred())
	})

	run := func(cfg sim.Config) *dynamo.Result {
		lf, err := integrators.NewLeapfrog(grid, v, dt, integrators.DensityLeapfrog)
		Expect(err).NotTo(HaveOccurred())
		res, err := sim.New(grid, lf).Run(context.Background(), psi0, cfg)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	It("builds the default grid and packet", func() {
		Expect(grid.Len()).To(Equal(2000))
		Expect(physics.Wavenumber(e, v0)).To(BeNumerically("~", 200, 1e-9))
		Expect(sim.DefaultConfig().FrameCount()).To(Equal(91))
	})

	It("stores the first recorded density in frame 0", func() {
		res := run(sim.Config{Steps: 2001, Stride: 1000})
		Expect(res.Frames.Len()).To(Equal(3))
		Expect(res.Frames.Steps).To(Equal([]int{1, 1001, -1}))

		// one imaginary update by hand
		s := dt / (dx * dx)
		re, im := psi0.Re, psi0.Im
		for _, j := range []int{1, 600, 850, 1998} {
			coef := s + v[j]*dt
			next := im[j] + s*(re[j+1]+re[j-1]) - 2*re[j]*coef
			want := re[j]*re[j] + next*im[j]
			Expect(res.Frames.Row(0)[j]).To(BeNumerically("~", want, 1e-9))
		}

		for _, x := range res.Frames.Row(2) {
			Expect(x).To(BeZero())
		}
	})

	It("leaves the boundary values untouched", func() {
		res := run(sim.Config{Steps: 4000, Stride: 1000})
		n := grid.Len()
		Expect(res.Final.Re[0]).To(Equal(psi0.Re[0]))
		Expect(res.Final.Im[0]).To(Equal(psi0.Im[0]))
		Expect(res.Final.Re[n-1]).To(Equal(psi0.Re[n-1]))
		Expect(res.Final.Im[n-1]).To(Equal(psi0.Im[n-1]))
	})

	It("is deterministic", func() {
		a := run(sim.Config{Steps: 3001, Stride: 1000})
		b := run(sim.Config{Steps: 3001, Stride: 1000})
		Expect(a.Frames.Data).To(Equal(b.Frames.Data))
		Expect(a.Unstable).To(BeFalse())
	})

	It("keeps the probability close to one", func() {
		res := run(sim.Config{Steps: 3001, Stride: 1000})
		for k := 0; k < res.Frames.Filled(); k++ {
			var total float64
			for _, p := range res.Frames.Row(k) {
				total += p
			}
			Expect(math.Abs(total*dx - 1)).To(BeNumerically("<", 1e-2))
		}
	})
})
