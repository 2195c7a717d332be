package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Simulator propagates a packet on a fixed grid and streams every recorded
// density row to its sampler, metrics and observers. It is not safe for
// concurrent use; run independent simulators in an Ensemble instead.
type Simulator struct {
	grid      *dynamo.Grid
	stepper   Stepper
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	pool      *RowPool
}

func New(grid *dynamo.Grid, stepper Stepper) *Simulator {
	return &Simulator{
		grid:      grid,
		stepper:   stepper,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Grid() *dynamo.Grid            { return s.grid }
func (s *Simulator) UsePool(p *RowPool)            { s.pool = p }

func (s *Simulator) Run(ctx context.Context, psi0 *dynamo.Wavefunction, cfg Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := s.grid.Len()
	if psi0.Len() != n {
		return nil, fmt.Errorf("%w: wavefunction has %d points, grid %d", dynamo.ErrDimensionMismatch, psi0.Len(), n)
	}
	if s.pool == nil || s.pool.Size() != n {
		s.pool = NewRowPool(n)
	}

	frames := dynamo.NewFrames(cfg.FrameCount(), n)
	sampler := NewSampler(frames, cfg.Stride)
	result := &dynamo.Result{
		Frames:  frames,
		Metrics: make(map[string]float64),
	}
	if cfg.KeepHistory {
		result.History = dynamo.NewHistory(cfg.Steps, n)
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.stepper.Reset()

	psi := psi0.Clone()
	start := time.Now()
	slog.Debug("propagation starting", "steps", cfg.Steps, "nx", n, "stride", cfg.Stride, "keep_history", cfg.KeepHistory)

	if cfg.Steps > 0 {
		row0 := psi.Density()
		if result.History != nil {
			copy(result.History.Row(0), row0)
		}
		s.notify(0, row0)
	}

	buf := s.pool.Get()
	defer s.pool.Put(buf)
	var blank []float64

	for i := 1; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			result.Final = psi
			return result, ctx.Err()
		default:
		}

		row := buf
		if result.History != nil {
			row = result.History.Row(i)
		}

		if s.stepper.Step(psi, row) {
			s.notify(i, row)
			sampler.OnRow(i, row)
		} else if sampler.Wants(i) {
			// unrecorded steps hold an all-zero row
			if result.History != nil {
				sampler.OnRow(i, row)
			} else {
				if blank == nil {
					blank = s.pool.Get()
					defer s.pool.Put(blank)
				}
				sampler.OnRow(i, blank)
			}
		}
		result.StepsTaken++

		if s.diverged() {
			result.Unstable = true
			if cfg.FailOnUnstable {
				result.Final = psi
				return result, &dynamo.SimulationError{Step: i, Wrapped: dynamo.ErrUnstable}
			}
		}
	}

	result.Final = psi
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if !psi.IsValid() {
		result.Unstable = true
	}

	slog.Debug("propagation finished", "steps", result.StepsTaken, "frames", frames.Filled(), "elapsed", time.Since(start))
	return result, nil
}

func (s *Simulator) notify(step int, row []float64) {
	for _, m := range s.metrics {
		m.Observe(step, row)
	}
	for _, o := range s.observers {
		o.OnRow(step, row)
	}
}

func (s *Simulator) diverged() bool {
	for _, m := range s.metrics {
		if d, ok := m.(Divergent); ok && d.Diverged() {
			return true
		}
	}
	return false
}
