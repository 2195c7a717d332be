package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a configuration rejected before any state is built.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnstable indicates the propagation diverged (NaN, Inf or runaway density).
	ErrUnstable = errors.New("dynamo: simulation unstable (density diverged)")

	// ErrSolverNoConvergence indicates the eigensolver failed to converge.
	ErrSolverNoConvergence = errors.New("dynamo: eigensolver did not converge")

	// ErrDimensionMismatch indicates arrays that do not share the grid length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between grid and arrays")
)

// SimulationError wraps an error with the step at which it occurred.
type SimulationError struct {
	Step    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
