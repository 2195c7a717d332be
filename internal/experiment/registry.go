package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/metrics"
)

// DefaultMetrics are attached to every session built with New.
var DefaultMetrics = []string{"stability", "norm", "norm_drift", "reflection", "transmission", "position"}

// Registry maps metric names to constructors bound to a session.
type Registry struct {
	metrics map[string]func(s *Session) dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]func(*Session) dynamo.Metric)}

	r.metrics["stability"] = func(s *Session) dynamo.Metric {
		return metrics.NewStability(s.cfg.Propagation.StabilityThreshold)
	}
	r.metrics["norm"] = func(s *Session) dynamo.Metric { return metrics.NewNorm(s.grid) }
	r.metrics["norm_drift"] = func(s *Session) dynamo.Metric { return metrics.NewNormDrift(s.grid) }
	r.metrics["reflection"] = func(s *Session) dynamo.Metric { return metrics.NewReflection(s.grid, s.potential) }
	r.metrics["transmission"] = func(s *Session) dynamo.Metric { return metrics.NewTransmission(s.grid, s.potential) }
	r.metrics["position"] = func(s *Session) dynamo.Metric { return metrics.NewPosition(s.grid) }

	return r
}

func (r *Registry) Metric(name string, s *Session) (dynamo.Metric, error) {
	if err := r.Check(name); err != nil {
		return nil, err
	}
	return r.metrics[name](s), nil
}

// Check fails with ErrInvalidConfig when name is not registered.
func (r *Registry) Check(name string) error {
	if _, ok := r.metrics[name]; !ok {
		return fmt.Errorf("%w: unknown metric %q, want one of %s", dynamo.ErrInvalidConfig, name, strings.Join(r.ListMetrics(), ", "))
	}
	return nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
