package config

import "sort"

// Preset adjusts the default configuration for a named scenario.
type Preset struct {
	Description string
	Apply       func(c *Config)
}

var Presets = map[string]Preset{
	"step": {
		Description: "packet on the default step, v0 = -4000, E/V0 = 5",
		Apply:       func(c *Config) {},
	},
	"barrier": {
		Description: "packet tunnelling through a repulsive barrier, v0 = 4000",
		Apply: func(c *Config) {
			c.Potential.V0 = 4000
			c.Packet.E = 0.4
			c.Output.Title = "Barrière de potentiel avec E/Vo=0.4"
		},
	},
	"free": {
		Description: "no potential; k = 0, so the packet only spreads",
		Apply: func(c *Config) {
			c.Potential.V0 = 0
			c.Output.Title = "Paquet libre"
		},
	},
	"well": {
		Description: "finite well of depth 50 on [-1, 1], bound states",
		Apply: func(c *Config) {
			c.Grid = GridConfig{XMin: -5, Dx: 0.01, Span: 10}
			c.Potential = PotentialConfig{V0: -50, Start: -1, End: 1}
			c.Packet = PacketConfig{Xc: -3, Sigma: 0.5, E: 1}
			c.Propagation.Dt = 1e-5
			c.Propagation.Steps = 30000
			c.Propagation.Stride = 300
			c.Stationary = StationaryConfig{
				Enabled:      true,
				Solver:       "tridiagonal",
				Select:       "bound",
				Normalize:    "trapezoid",
				KineticScale: 0.5,
				Plot:         "amplitude",
				Title:        "États stationnaires dans un puits de potentiel fini",
			}
			c.Output.Title = "Puits fini avec E/Vo=1"
			c.Output.XMin, c.Output.XMax = -5, 5
			c.Output.YMin, c.Output.YMax = -55, 5
		},
	},
}

// GetPreset returns the default configuration with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	p.Apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
