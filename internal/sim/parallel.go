package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Job is one independent run inside an Ensemble.
type Job struct {
	Name      string
	Simulator *Simulator
	Psi0      *dynamo.Wavefunction
	Config    Config
}

// Ensemble runs independent jobs concurrently. Each job owns its simulator
// and wavefunction; only row buffers are shared, through per-size pools.
type Ensemble struct {
	workers int
}

func NewEnsemble(workers int) *Ensemble {
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{workers: workers}
}

// Run returns results in job order. The first failing job cancels the rest.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(jobs))
	pools := make(map[int]*RowPool)
	for _, j := range jobs {
		n := j.Simulator.Grid().Len()
		if pools[n] == nil {
			pools[n] = NewRowPool(n)
		}
		j.Simulator.UsePool(pools[n])
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			res, err := j.Simulator.Run(ctx, j.Psi0, j.Config)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
