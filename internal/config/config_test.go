package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wavesim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, -4000.0, cfg.Potential.V0)
	assert.Equal(t, 5.0, cfg.Packet.E)
	assert.Equal(t, 1e-7, cfg.Propagation.Dt)
	assert.Equal(t, 0.001, cfg.Grid.Dx)
	assert.Equal(t, 90000, cfg.Propagation.Steps)
	assert.Equal(t, 0.6, cfg.Packet.Xc)
	assert.Equal(t, 0.05, cfg.Packet.Sigma)
	assert.Equal(t, 2000, cfg.Points())
	assert.Equal(t, 10, cfg.Output.FPS)
	assert.Equal(t, "Marche Ascendante avec E/Vo=5", cfg.AnimationTitle())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero dx", func(c *Config) { c.Grid.Dx = 0 }},
		{"negative dt", func(c *Config) { c.Propagation.Dt = -1e-7 }},
		{"negative steps", func(c *Config) { c.Propagation.Steps = -1 }},
		{"zero sigma", func(c *Config) { c.Packet.Sigma = 0 }},
		{"zero stride", func(c *Config) { c.Propagation.Stride = 0 }},
		{"zero fps", func(c *Config) { c.Output.FPS = 0 }},
		{"inverted region", func(c *Config) { c.Potential.Start, c.Potential.End = 0.9, 0.8 }},
		{"tiny grid", func(c *Config) { c.Grid.Dx = 1 }},
		{"unknown density mode", func(c *Config) { c.Propagation.DensityMode = "exact" }},
		{"unknown solver", func(c *Config) { c.Stationary.Solver = "arpack" }},
		{"unknown selection", func(c *Config) { c.Stationary.Select = "all" }},
		{"zero count", func(c *Config) { c.Stationary.Count = 0 }},
		{"empty y range", func(c *Config) { c.Output.YMax = c.Output.YMin }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidConfig)
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("potential:\n  v0: -2000\npacket:\n  e: 2.5\nstationary:\n  enabled: true\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, -2000.0, cfg.Potential.V0)
	assert.Equal(t, 2.5, cfg.Packet.E)
	assert.True(t, cfg.Stationary.Enabled)
	assert.Equal(t, 0.8, cfg.Potential.Start, "unset fields keep their defaults")
	assert.Equal(t, DefaultStatesFile, cfg.Output.StatesFile)
	assert.Equal(t, "Marche Ascendante avec E/Vo=2.5", cfg.AnimationTitle())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "well.yaml")
	want := GetPreset("well")
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestGetPreset(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			assert.Equal(t, name, cfg.Name)
			assert.NoError(t, cfg.Validate())
		})
	}

	well := GetPreset("well")
	assert.Equal(t, 1000, well.Points())
	assert.Equal(t, "bound", well.Stationary.Select)
	assert.Equal(t, 0.5, well.Stationary.KineticScale)

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsDoNotShareState(t *testing.T) {
	a := GetPreset("step")
	a.Potential.V0 = 1
	b := GetPreset("step")
	assert.Equal(t, DefaultV0, b.Potential.V0)
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"barrier", "free", "step", "well"}, ListPresets())
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetParam("v0", 4000))
	require.NoError(t, cfg.SetParam("e", 0.4))
	require.NoError(t, cfg.SetParam("stride", 250))
	assert.Equal(t, 4000.0, cfg.Potential.V0)
	assert.Equal(t, 0.4, cfg.Packet.E)
	assert.Equal(t, 250, cfg.Propagation.Stride)

	assert.ErrorIs(t, cfg.SetParam("mass", 1), dynamo.ErrInvalidConfig)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.Clone()
	c.Packet.E = 1
	assert.Equal(t, DefaultE, cfg.Packet.E)
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "over.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packet:\n  e: 2\n"), 0644))

	cfg, err := LoadOver(path, GetPreset("well"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Packet.E)
	assert.Equal(t, -50.0, cfg.Potential.V0)
	assert.Equal(t, "well", cfg.Name)
}
