package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wavesim/internal/automation"
	"github.com/san-kum/wavesim/internal/dynamo"
)

func newTestCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	configFile, outDir = "", ""
	cmd := &cobra.Command{Use: "test"}
	addConfigFlags(cmd)
	cmd.Flags().BoolVar(&stationary, "stationary", false, "")
	require.NoError(t, cmd.Flags().Parse(flags))
	return cmd
}

func TestLoadConfigDefaultsToStep(t *testing.T) {
	cfg, err := loadConfig(newTestCmd(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "step", cfg.Name)
	assert.Equal(t, -4000.0, cfg.Potential.V0)
}

func TestLoadConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packet:\n  e: 2\n  xc: 0.5\npropagation:\n  stride: 500\n"), 0644))

	cmd := newTestCmd(t, "--config", path, "--e", "3", "--stationary", "--density-mode", "standard")
	cfg, err := loadConfig(cmd, []string{"barrier"})
	require.NoError(t, err)

	// preset
	assert.Equal(t, 4000.0, cfg.Potential.V0)
	// file over preset
	assert.Equal(t, 0.5, cfg.Packet.Xc)
	assert.Equal(t, 500, cfg.Propagation.Stride)
	// flags over file
	assert.Equal(t, 3.0, cfg.Packet.E)
	assert.True(t, cfg.Stationary.Enabled)
	assert.Equal(t, "standard", cfg.Propagation.DensityMode)
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	_, err := loadConfig(newTestCmd(t), []string{"nowhere"})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestSweepConfigRejectsUnknownMetric(t *testing.T) {
	defer func(m string) { metric = m }(metric)

	metric = "energy"
	_, err := sweepConfig(newTestCmd(t), nil)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	metric = "transmission"
	cfg, err := sweepConfig(newTestCmd(t), nil)
	require.NoError(t, err)
	assert.False(t, cfg.Propagation.KeepHistory)
}

func TestSummarizeTrials(t *testing.T) {
	results := []automation.MonteCarloResult{
		{TrialID: 0, Metrics: map[string]float64{"reflection": 0.2}},
		{TrialID: 1, Metrics: map[string]float64{"reflection": 0.4}},
		{TrialID: 2, Metrics: map[string]float64{"reflection": 9}, Unstable: true},
	}

	sum := summarizeTrials(results, "reflection")
	assert.Equal(t, 2, sum.Stable)
	assert.InDelta(t, 0.3, sum.Mean, 1e-12)
	assert.InDelta(t, 0.1414213562, sum.StdDev, 1e-9)

	sum = summarizeTrials(results[:1], "reflection")
	assert.Equal(t, 0.2, sum.Mean)
	assert.Zero(t, sum.StdDev)

	sum = summarizeTrials(results[2:], "reflection")
	assert.Zero(t, sum.Stable)
	assert.True(t, math.IsNaN(sum.Mean))
}
