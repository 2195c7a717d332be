package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/sim"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (default "step"), overrides parameters
// by name and optionally solves for stationary states too.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Params     map[string]float64 `yaml:"params"`
	Density    string             `yaml:"density_mode"`
	Stationary bool               `yaml:"stationary"`
	SaveAs     string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name    string
	Session *experiment.Session
	Result  *dynamo.Result
	States  []dynamo.Eigenstate
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %s has no steps", dynamo.ErrInvalidConfig, path)
	}
	return &scenario, nil
}

// Config resolves the step's preset and overrides.
func (s ScenarioStep) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "step"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidConfig, preset)
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if s.Density != "" {
		cfg.Propagation.DensityMode = s.Density
	}
	if s.Stationary {
		cfg.Stationary.Enabled = true
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	} else if s.Name != "" {
		cfg.Name = s.Name
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		slog.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", cfg.Name)

		session, err := experiment.New(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := session.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: cfg.Name, Session: session, Result: result}
		if cfg.Stationary.Enabled {
			if sr.States, err = session.Stationary(); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one configuration per value of a parameter, spaced
// evenly over [Min, Max].
type ParameterSweep struct {
	Base    *config.Config
	Param   string
	Min     float64
	Max     float64
	Points  int
	Workers int
}

type SweepResult struct {
	Value    float64
	Metrics  map[string]float64
	Unstable bool
}

// Values returns the swept parameter values.
func (p *ParameterSweep) Values() []float64 {
	if p.Points <= 1 {
		return []float64{p.Min}
	}
	step := (p.Max - p.Min) / float64(p.Points-1)
	out := make([]float64, p.Points)
	for i := range out {
		out[i] = p.Min + float64(i)*step
	}
	return out
}

// RunSweep builds every session up front, then runs them concurrently.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	values := sweep.Values()
	jobs := make([]sim.Job, len(values))

	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return nil, err
		}
		cfg.Name = fmt.Sprintf("%s_%s_%g", nameOr(cfg.Name, "sweep"), sweep.Param, v)
		session, err := experiment.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		jobs[i] = session.Job()
	}

	start := time.Now()
	results, err := sim.NewEnsemble(sweep.Workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}
	slog.Info("sweep finished", "param", sweep.Param, "runs", len(jobs), "elapsed", time.Since(start))

	out := make([]SweepResult, len(results))
	for i, res := range results {
		out[i] = SweepResult{Value: values[i], Metrics: res.Metrics, Unstable: res.Unstable}
	}
	return out, nil
}

// MonteCarloConfig jitters the packet centre and energy around Base.
type MonteCarloConfig struct {
	Base      *config.Config
	XcJitter  float64
	EJitter   float64
	NumTrials int
	Workers   int
	Seed      int64
}

type MonteCarloResult struct {
	TrialID  int
	Xc       float64
	E        float64
	Metrics  map[string]float64
	Unstable bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.Base == nil {
		return nil, fmt.Errorf("%w: monte carlo needs a base config", dynamo.ErrInvalidConfig)
	}
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", dynamo.ErrInvalidConfig, cfg.NumTrials)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	out := make([]MonteCarloResult, cfg.NumTrials)
	jobs := make([]sim.Job, cfg.NumTrials)
	for trial := range jobs {
		c := cfg.Base.Clone()
		c.Packet.Xc += (rng.Float64() - 0.5) * 2 * cfg.XcJitter
		c.Packet.E += (rng.Float64() - 0.5) * 2 * cfg.EJitter
		c.Name = fmt.Sprintf("%s_trial_%d", nameOr(c.Name, "mc"), trial)

		session, err := experiment.New(c)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		jobs[trial] = session.Job()
		out[trial] = MonteCarloResult{TrialID: trial, Xc: c.Packet.Xc, E: c.Packet.E}
	}

	results, err := sim.NewEnsemble(cfg.Workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		out[i].Metrics = res.Metrics
		out[i].Unstable = res.Unstable
	}
	return out, nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
