package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/experiment"
	"github.com/san-kum/wavesim/internal/sim"
)

// Goal says which way the searched metric should move.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

func ParseGoal(name string) (Goal, error) {
	switch name {
	case "", "min", "minimize":
		return Minimize, nil
	case "max", "maximize":
		return Maximize, nil
	}
	return 0, fmt.Errorf("%w: unknown goal %q", dynamo.ErrInvalidConfig, name)
}

// GridSearch evaluates every combination of parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64, workers int) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: workers}
}

// Candidate is one evaluated point of the grid.
type Candidate struct {
	Params   map[string]float64
	Value    float64
	Unstable bool
}

// Search runs all combinations concurrently and returns the best candidate
// along with every evaluated one, best first. Unstable runs never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string, goal Goal) (Candidate, []Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Candidate{}, nil, fmt.Errorf("%w: %d parameters but %d ranges", dynamo.ErrInvalidConfig, len(g.paramNames), len(g.ranges))
	}
	if err := experiment.NewRegistry().Check(metricName); err != nil {
		return Candidate{}, nil, err
	}

	var combos []map[string]float64
	g.combinations(0, make(map[string]float64), &combos)
	if len(combos) == 0 {
		return Candidate{}, nil, fmt.Errorf("%w: empty search grid", dynamo.ErrInvalidConfig)
	}

	jobs := make([]sim.Job, len(combos))
	for i, params := range combos {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return Candidate{}, nil, err
			}
		}
		session, err := experiment.New(cfg)
		if err != nil {
			return Candidate{}, nil, fmt.Errorf("%v: %w", params, err)
		}
		jobs[i] = session.Job()
	}

	results, err := sim.NewEnsemble(g.workers).Run(ctx, jobs)
	if err != nil {
		return Candidate{}, nil, err
	}

	candidates := make([]Candidate, len(results))
	for i, res := range results {
		val, ok := res.Metrics[metricName]
		if !ok {
			return Candidate{}, nil, fmt.Errorf("%w: run has no metric %q", dynamo.ErrInvalidConfig, metricName)
		}
		candidates[i] = Candidate{Params: combos[i], Value: val, Unstable: res.Unstable}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return score(candidates[a], goal) < score(candidates[b], goal)
	})
	return candidates[0], candidates, nil
}

// score is lower for better candidates.
func score(c Candidate, goal Goal) float64 {
	if c.Unstable || math.IsNaN(c.Value) {
		return math.Inf(1)
	}
	if goal == Maximize {
		return -c.Value
	}
	return c.Value
}

func (g *GridSearch) combinations(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*out = append(*out, params)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.combinations(depth+1, current, out)
	}
	delete(current, paramName)
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*(hi-lo)/float64(n-1)
	}
	return out
}
