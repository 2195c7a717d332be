package sim

import (
	"fmt"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Stepper advances a wavefunction by one propagation step, writing the
// density into row when the step records one.
type Stepper interface {
	Step(psi *dynamo.Wavefunction, row []float64) bool
	Reset()
}

// Divergent is implemented by metrics that can tell the run has blown up.
type Divergent interface {
	Diverged() bool
}

type Config struct {
	// Steps is nt, the number of density rows including the initial one.
	Steps int
	// Stride selects every Stride-th row, starting at step 1, as a frame.
	Stride int
	// KeepHistory retains all Steps rows instead of streaming them.
	KeepHistory bool
	// FailOnUnstable aborts with dynamo.ErrUnstable once a Divergent metric fires.
	FailOnUnstable bool
}

const DefaultStride = 1000

func DefaultConfig() Config {
	return Config{
		Steps:  90000,
		Stride: DefaultStride,
	}
}

func (c Config) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must not be negative, got %d", dynamo.ErrInvalidConfig, c.Steps)
	}
	if c.Stride <= 0 {
		return fmt.Errorf("%w: frame stride must be positive, got %d", dynamo.ErrInvalidConfig, c.Stride)
	}
	return nil
}

// FrameCount is the number of frame slots for a run: Steps/Stride + 1.
func (c Config) FrameCount() int {
	return c.Steps/c.Stride + 1
}
