package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/export"
	"github.com/san-kum/wavesim/internal/integrators"
	"github.com/san-kum/wavesim/internal/physics"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/solver"
	"github.com/san-kum/wavesim/internal/storage"
)

// Session owns everything one run needs. Nothing is shared between sessions,
// so several may run at once.
type Session struct {
	cfg       *config.Config
	grid      *dynamo.Grid
	potential dynamo.Potential
	psi0      *dynamo.Wavefunction
	k         float64
	stepper   *integrators.Leapfrog
	simulator *sim.Simulator
	metrics   []dynamo.Metric
}

// New validates cfg and builds the grid, potential, initial packet and
// propagator it describes, with the default metrics attached.
func New(cfg *config.Config) (*Session, error) {
	return NewWithMetrics(cfg, DefaultMetrics)
}

// NewWithMetrics is New with an explicit list of registered metric names.
func NewWithMetrics(cfg *config.Config, metricNames []string) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := physics.NewGrid(cfg.Grid.XMin, cfg.Grid.Dx, cfg.Grid.Span)
	if err != nil {
		return nil, err
	}
	v := physics.NewRectangularPotential(g, cfg.Potential.Start, cfg.Potential.End, cfg.Potential.V0)

	k := physics.Wavenumber(cfg.Packet.E, cfg.Potential.V0)
	psi0, err := physics.GaussianPacket(g, cfg.Packet.Xc, cfg.Packet.Sigma, k)
	if err != nil {
		return nil, err
	}

	mode, err := integrators.ParseDensityMode(cfg.Propagation.DensityMode)
	if err != nil {
		return nil, err
	}
	lf, err := integrators.NewLeapfrog(g, v, cfg.Propagation.Dt, mode)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		grid:      g,
		potential: v,
		psi0:      psi0,
		k:         k,
		stepper:   lf,
		simulator: sim.New(g, lf),
	}

	reg := NewRegistry()
	for _, name := range metricNames {
		m, err := reg.Metric(name, s)
		if err != nil {
			return nil, err
		}
		s.metrics = append(s.metrics, m)
		s.simulator.AddMetric(m)
	}
	return s, nil
}

func (s *Session) Config() *config.Config             { return s.cfg }
func (s *Session) Grid() *dynamo.Grid                 { return s.grid }
func (s *Session) Potential() dynamo.Potential        { return s.potential }
func (s *Session) InitialState() *dynamo.Wavefunction { return s.psi0 }
func (s *Session) Wavenumber() float64                { return s.k }
func (s *Session) Stepper() *integrators.Leapfrog     { return s.stepper }

// Metric returns the attached metric with the given name, or nil.
func (s *Session) Metric(name string) dynamo.Metric {
	for _, m := range s.metrics {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Simulator exposes the simulator so callers can attach observers.
func (s *Session) Simulator() *sim.Simulator { return s.simulator }

func (s *Session) SimConfig() sim.Config {
	p := s.cfg.Propagation
	return sim.Config{
		Steps:          p.Steps,
		Stride:         p.Stride,
		KeepHistory:    p.KeepHistory,
		FailOnUnstable: p.FailOnUnstable,
	}
}

// Run propagates the initial packet. Cancelling ctx stops it between steps.
func (s *Session) Run(ctx context.Context) (*dynamo.Result, error) {
	slog.Info("propagation started",
		"name", s.cfg.Name,
		"points", s.grid.Len(),
		"steps", s.cfg.Propagation.Steps,
		"k", s.k,
		"courant", s.stepper.Courant(),
	)
	start := time.Now()

	result, err := s.simulator.Run(ctx, s.psi0, s.SimConfig())
	if err != nil {
		return nil, fmt.Errorf("propagate %s: %w", s.label(), err)
	}

	slog.Info("propagation finished",
		"steps", result.StepsTaken,
		"frames", result.Frames.Filled(),
		"unstable", result.Unstable,
		"elapsed", time.Since(start),
	)
	return result, nil
}

// Job wraps the session for an Ensemble.
func (s *Session) Job() sim.Job {
	return sim.Job{
		Name:      s.label(),
		Simulator: s.simulator,
		Psi0:      s.psi0,
		Config:    s.SimConfig(),
	}
}

// Stationary solves for the eigenstates of the session's Hamiltonian.
func (s *Session) Stationary() ([]dynamo.Eigenstate, error) {
	opts, err := SolverOptions(s.cfg.Stationary)
	if err != nil {
		return nil, err
	}
	states, err := solver.Solve(s.grid, s.potential, opts)
	if err != nil {
		return nil, fmt.Errorf("stationary states: %w", err)
	}
	return states, nil
}

// SolverOptions converts the stationary section of a config.
func SolverOptions(c config.StationaryConfig) (solver.Options, error) {
	opts := solver.Options{
		Method:       solver.Method(c.Solver),
		Select:       solver.Selection(c.Select),
		Count:        c.Count,
		Normalize:    solver.Normalization(c.Normalize),
		KineticScale: c.KineticScale,
	}
	if opts.Method == "" {
		opts.Method = solver.Tridiagonal
	}
	if opts.Select == "" {
		opts.Select = solver.Lowest
	}
	if opts.Normalize == "" {
		opts.Normalize = solver.Sum
	}
	if opts.Select == solver.Lowest && opts.Count == 0 {
		opts.Count = solver.DefaultCount
	}
	return opts, opts.Validate()
}

// StatesOptions returns the chart options for the stationary plot.
func (s *Session) StatesOptions() (export.StatesOptions, error) {
	plot, err := export.ParseStatePlot(s.cfg.Stationary.Plot)
	if err != nil {
		return export.StatesOptions{}, err
	}
	return export.StatesOptions{Title: s.cfg.Stationary.Title, Plot: plot}, nil
}

// Animation describes the GIF for a set of frames.
func (s *Session) Animation(frames *dynamo.Frames) *export.Animation {
	out := s.cfg.Output
	return &export.Animation{
		Grid:      s.grid,
		Potential: s.potential,
		Frames:    frames,
		Title:     s.cfg.AnimationTitle(),
		XMin:      out.XMin,
		XMax:      out.XMax,
		YMin:      out.YMin,
		YMax:      out.YMax,
		FPS:       out.FPS,
		Dt:        s.cfg.Propagation.Dt,
	}
}

// Record bundles a result and optional states for the run store.
func (s *Session) Record(result *dynamo.Result, states []dynamo.Eigenstate) *storage.Run {
	c := s.cfg
	mode := c.Propagation.DensityMode
	if mode == "" {
		mode = s.stepper.Mode().String()
	}
	run := &storage.Run{
		Meta: storage.RunMetadata{
			Name:        s.label(),
			Points:      s.grid.Len(),
			Dx:          c.Grid.Dx,
			Dt:          c.Propagation.Dt,
			Steps:       c.Propagation.Steps,
			Stride:      c.Propagation.Stride,
			V0:          c.Potential.V0,
			Start:       c.Potential.Start,
			End:         c.Potential.End,
			E:           c.Packet.E,
			Xc:          c.Packet.Xc,
			Sigma:       c.Packet.Sigma,
			DensityMode: mode,
		},
		Grid:   s.grid,
		States: states,
	}
	if result != nil {
		run.Frames = result.Frames
		run.Meta.Unstable = result.Unstable
		run.Meta.Metrics = result.Metrics
	}
	return run
}

func (s *Session) label() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return "run"
}
