package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wavesim/internal/dynamo"
)

const (
	DefaultDx           = 0.001
	DefaultSpan         = 2
	DefaultDt           = 1e-7
	DefaultSteps        = 90000
	DefaultStride       = 1000
	DefaultXc           = 0.6
	DefaultSigma        = 0.05
	DefaultV0           = -4000.0
	DefaultE            = 5.0
	DefaultBarrierStart = 0.8
	DefaultBarrierEnd   = 0.9
	DefaultStates       = 5
	DefaultFPS          = 10
	DefaultOutputDir    = "data"
	DefaultStatesFile   = "etats_stationnaires.png"
	DefaultAnimation    = "animation.gif"
)

type Config struct {
	Name        string            `yaml:"name,omitempty"`
	Grid        GridConfig        `yaml:"grid"`
	Potential   PotentialConfig   `yaml:"potential"`
	Packet      PacketConfig      `yaml:"packet"`
	Propagation PropagationConfig `yaml:"propagation"`
	Stationary  StationaryConfig  `yaml:"stationary"`
	Output      OutputConfig      `yaml:"output"`
}

type GridConfig struct {
	XMin float64 `yaml:"x_min"`
	Dx   float64 `yaml:"dx"`
	// Span multiplies int(1/dx) to give the number of points.
	Span int `yaml:"span"`
}

type PotentialConfig struct {
	V0    float64 `yaml:"v0"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

type PacketConfig struct {
	Xc    float64 `yaml:"xc"`
	Sigma float64 `yaml:"sigma"`
	// E is the energy ratio; the wavenumber is sqrt(2|E*V0|).
	E float64 `yaml:"e"`
}

type PropagationConfig struct {
	Dt                 float64 `yaml:"dt"`
	Steps              int     `yaml:"steps"`
	Stride             int     `yaml:"stride"`
	DensityMode        string  `yaml:"density_mode"`
	KeepHistory        bool    `yaml:"keep_history"`
	FailOnUnstable     bool    `yaml:"fail_on_unstable"`
	StabilityThreshold float64 `yaml:"stability_threshold,omitempty"`
}

type StationaryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Solver       string  `yaml:"solver"`
	Select       string  `yaml:"select"`
	Count        int     `yaml:"count"`
	Normalize    string  `yaml:"normalize"`
	KineticScale float64 `yaml:"kinetic_scale"`
	// Plot is "density" (psi^2 + E) or "amplitude" (psi + E).
	Plot  string `yaml:"plot"`
	Title string `yaml:"title"`
}

type OutputConfig struct {
	Dir           string  `yaml:"dir"`
	StatesFile    string  `yaml:"states_file"`
	AnimationFile string  `yaml:"animation_file"`
	FPS           int     `yaml:"fps"`
	Title         string  `yaml:"title,omitempty"`
	XMin          float64 `yaml:"x_min"`
	XMax          float64 `yaml:"x_max"`
	YMin          float64 `yaml:"y_min"`
	YMax          float64 `yaml:"y_max"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Dx:   DefaultDx,
			Span: DefaultSpan,
		},
		Potential: PotentialConfig{
			V0:    DefaultV0,
			Start: DefaultBarrierStart,
			End:   DefaultBarrierEnd,
		},
		Packet: PacketConfig{
			Xc:    DefaultXc,
			Sigma: DefaultSigma,
			E:     DefaultE,
		},
		Propagation: PropagationConfig{
			Dt:          DefaultDt,
			Steps:       DefaultSteps,
			Stride:      DefaultStride,
			DensityMode: "leapfrog",
		},
		Stationary: StationaryConfig{
			Solver:       "tridiagonal",
			Select:       "lowest",
			Count:        DefaultStates,
			Normalize:    "sum",
			KineticScale: 1,
			Plot:         "density",
			Title:        "États stationnaires",
		},
		Output: OutputConfig{
			Dir:           DefaultOutputDir,
			StatesFile:    DefaultStatesFile,
			AnimationFile: DefaultAnimation,
			FPS:           DefaultFPS,
			XMin:          0,
			XMax:          2,
			YMin:          -6,
			YMax:          12,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, so keys missing from the file keep
// base's values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AnimationTitle returns the configured title or the default one naming E/V0.
func (c *Config) AnimationTitle() string {
	if c.Output.Title != "" {
		return c.Output.Title
	}
	return "Marche Ascendante avec E/Vo=" + strconv.FormatFloat(c.Packet.E, 'g', -1, 64)
}

// Points returns the grid size int(1/dx)*span.
func (c *Config) Points() int {
	if c.Grid.Dx <= 0 {
		return 0
	}
	return int(1/c.Grid.Dx) * c.Grid.Span
}

var (
	densityModes  = []string{"leapfrog", "standard"}
	solvers       = []string{"tridiagonal", "dense"}
	selections    = []string{"lowest", "bound"}
	normalization = []string{"sum", "trapezoid"}
	statePlots    = []string{"density", "amplitude"}
)

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown %s %q (want one of %v)", dynamo.ErrInvalidConfig, field, value, allowed)
}

// Validate rejects configurations that cannot produce a run.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrInvalidConfig}, args...)...)
	}

	switch {
	case c.Grid.Dx <= 0:
		return invalid("dx must be positive, got %g", c.Grid.Dx)
	case c.Grid.Span <= 0:
		return invalid("span must be positive, got %d", c.Grid.Span)
	case c.Points() < 3:
		return invalid("grid needs at least 3 points, got %d", c.Points())
	case c.Potential.End < c.Potential.Start:
		return invalid("potential region [%g, %g] is empty", c.Potential.Start, c.Potential.End)
	case c.Packet.Sigma <= 0:
		return invalid("sigma must be positive, got %g", c.Packet.Sigma)
	case c.Propagation.Dt <= 0:
		return invalid("dt must be positive, got %g", c.Propagation.Dt)
	case c.Propagation.Steps < 0:
		return invalid("steps must not be negative, got %d", c.Propagation.Steps)
	case c.Propagation.Stride <= 0:
		return invalid("stride must be positive, got %d", c.Propagation.Stride)
	case c.Output.FPS <= 0:
		return invalid("fps must be positive, got %d", c.Output.FPS)
	case c.Output.YMax <= c.Output.YMin:
		return invalid("y range [%g, %g] is empty", c.Output.YMin, c.Output.YMax)
	}

	if c.Propagation.DensityMode != "" {
		if err := oneOf("density mode", c.Propagation.DensityMode, densityModes); err != nil {
			return err
		}
	}
	if err := oneOf("solver", c.Stationary.Solver, solvers); err != nil {
		return err
	}
	if err := oneOf("state selection", c.Stationary.Select, selections); err != nil {
		return err
	}
	if err := oneOf("normalization", c.Stationary.Normalize, normalization); err != nil {
		return err
	}
	if err := oneOf("state plot", c.Stationary.Plot, statePlots); err != nil {
		return err
	}
	if c.Stationary.Select == "lowest" && c.Stationary.Count <= 0 {
		return invalid("state count must be positive, got %d", c.Stationary.Count)
	}
	return nil
}

// Params lists the names accepted by SetParam.
var Params = []string{"v0", "e", "xc", "sigma", "dt", "dx", "barrier_start", "barrier_end", "steps", "stride"}

// SetParam overrides one numeric field by name. Sweeps, scenarios and the
// search share it so parameter names mean the same everywhere.
func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case "v0":
		c.Potential.V0 = value
	case "e":
		c.Packet.E = value
	case "xc":
		c.Packet.Xc = value
	case "sigma":
		c.Packet.Sigma = value
	case "dt":
		c.Propagation.Dt = value
	case "dx":
		c.Grid.Dx = value
	case "barrier_start":
		c.Potential.Start = value
	case "barrier_end":
		c.Potential.End = value
	case "steps":
		c.Propagation.Steps = int(value)
	case "stride":
		c.Propagation.Stride = int(value)
	default:
		return fmt.Errorf("%w: unknown parameter %q (want one of %v)", dynamo.ErrInvalidConfig, name, Params)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
