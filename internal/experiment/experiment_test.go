package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/solver"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Name = "small"
	cfg.Grid.Dx = 0.01
	cfg.Propagation.Dt = 1e-5
	cfg.Propagation.Steps = 201
	cfg.Propagation.Stride = 100
	return cfg
}

func TestSessionBuild(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)

	assert.Equal(t, 200, s.Grid().Len())
	assert.InDelta(t, 200, s.Wavenumber(), 1e-9)
	assert.Equal(t, -4000.0, s.Potential()[s.Grid().Index(0.85)])
	assert.Equal(t, 0.0, s.Potential()[s.Grid().Index(0.5)])
	assert.InDelta(t, 0.1, s.Stepper().Courant(), 1e-12)
	assert.Equal(t, sim.Config{Steps: 201, Stride: 100}, s.SimConfig())
}

func TestSessionRun(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Frames.Len())
	assert.Equal(t, []int{1, 101, -1}, result.Frames.Steps)
	assert.False(t, result.Unstable)
	for _, name := range DefaultMetrics {
		assert.Contains(t, result.Metrics, name)
	}
	assert.InDelta(t, 1, result.Metrics["norm"], 0.1)
	assert.Less(t, result.Metrics["reflection"], 1.0)

	require.NotNil(t, s.Metric("stability"))
	assert.Nil(t, s.Metric("energy"))
}

func TestSessionRunCanceled(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSessionInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Packet.Sigma = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = NewWithMetrics(smallConfig(), []string{"norm", "energy"})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestSessionStationary(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)

	states, err := s.Stationary()
	require.NoError(t, err)
	require.Len(t, states, config.DefaultStates)
	for i := 1; i < len(states); i++ {
		assert.LessOrEqual(t, states[i-1].Energy, states[i].Energy)
	}
}

func TestSolverOptions(t *testing.T) {
	opts, err := SolverOptions(config.StationaryConfig{})
	require.NoError(t, err)
	assert.Equal(t, solver.Tridiagonal, opts.Method)
	assert.Equal(t, solver.Lowest, opts.Select)
	assert.Equal(t, solver.DefaultCount, opts.Count)
	assert.Equal(t, solver.Sum, opts.Normalize)

	_, err = SolverOptions(config.StationaryConfig{Solver: "qr"})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestSessionRecord(t *testing.T) {
	s, err := New(smallConfig())
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	run := s.Record(result, nil)
	assert.Equal(t, "small", run.Meta.Name)
	assert.Equal(t, "leapfrog", run.Meta.DensityMode)
	assert.Equal(t, 200, run.Meta.Points)
	assert.Same(t, result.Frames, run.Frames)

	anim := s.Animation(result.Frames)
	assert.Equal(t, "Marche Ascendante avec E/Vo=5", anim.Title)
	assert.Equal(t, config.DefaultFPS, anim.FPS)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.ElementsMatch(t, DefaultMetrics, r.ListMetrics())

	s, err := NewWithMetrics(smallConfig(), nil)
	require.NoError(t, err)
	m, err := r.Metric("transmission", s)
	require.NoError(t, err)
	assert.Equal(t, "transmission", m.Name())

	for _, name := range DefaultMetrics {
		assert.NoError(t, r.Check(name))
	}
	err = r.Check("energy")
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "reflection")

	_, err = r.Metric("energy", s)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}
