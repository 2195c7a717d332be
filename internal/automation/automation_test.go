package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
)

const scenarioYAML = `
name: step-and-barrier
description: a step then a barrier on a coarse grid
steps:
  - name: coarse-step
    params: {dx: 0.01, dt: 1.0e-5, steps: 21, stride: 10}
  - preset: barrier
    save_as: coarse-barrier
    stationary: true
    density_mode: standard
    params: {dx: 0.01, dt: 1.0e-5, steps: 21, stride: 10}
`

func coarse() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Grid.Dx = 0.01
	cfg.Propagation.Dt = 1e-5
	cfg.Propagation.Steps = 21
	cfg.Propagation.Stride = 10
	return cfg
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunScenario(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	require.Len(t, scenario.Steps, 2)

	results, err := RunScenario(context.Background(), scenario)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "coarse-step", results[0].Name)
	assert.Nil(t, results[0].States)
	assert.Equal(t, 3, results[0].Result.Frames.Len())

	assert.Equal(t, "coarse-barrier", results[1].Name)
	assert.Equal(t, 4000.0, results[1].Session.Config().Potential.V0)
	assert.Equal(t, "standard", results[1].Session.Stepper().Mode().String())
	assert.Len(t, results[1].States, config.DefaultStates)
}

func TestRunScenarioStopsOnError(t *testing.T) {
	body := `
name: broken
steps:
  - params: {dx: 0.01, dt: 1.0e-5, steps: 5, stride: 2}
  - preset: nowhere
`
	scenario, err := LoadScenario(writeScenario(t, body))
	require.NoError(t, err)

	results, err := RunScenario(context.Background(), scenario)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	assert.Len(t, results, 1)
}

func TestLoadScenarioErrors(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadScenario(writeScenario(t, "name: empty\n"))
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestSweepValues(t *testing.T) {
	s := &ParameterSweep{Min: 1, Max: 2, Points: 5}
	assert.InDeltaSlice(t, []float64{1, 1.25, 1.5, 1.75, 2}, s.Values(), 1e-12)

	s.Points = 1
	assert.Equal(t, []float64{1}, s.Values())
}

func TestRunSweep(t *testing.T) {
	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base:    coarse(),
		Param:   "e",
		Min:     1,
		Max:     5,
		Points:  3,
		Workers: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, want := range []float64{1, 3, 5} {
		assert.Equal(t, want, results[i].Value)
		assert.Contains(t, results[i].Metrics, "reflection")
	}
}

func TestRunSweepUnknownParam(t *testing.T) {
	_, err := RunSweep(context.Background(), &ParameterSweep{Base: coarse(), Param: "mass", Points: 2})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestRunMonteCarloDeterministic(t *testing.T) {
	run := func() []MonteCarloResult {
		res, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
			Base:      coarse(),
			XcJitter:  0.05,
			EJitter:   0.5,
			NumTrials: 3,
			Workers:   3,
			Seed:      7,
		})
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	for i := range a {
		assert.Equal(t, a[i].Xc, b[i].Xc)
		assert.Equal(t, a[i].E, b[i].E)
		assert.Equal(t, a[i].Metrics, b[i].Metrics)
		assert.InDelta(t, 0.6, a[i].Xc, 0.05)
	}
}

func TestRunMonteCarloInvalid(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{Base: coarse()})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = RunMonteCarlo(context.Background(), &MonteCarloConfig{NumTrials: 2})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}
