// Package solver computes stationary states of the one dimensional
// Hamiltonian H = -c d2/dx2 + V on a uniform grid.
//
// The second derivative uses the three point stencil, so H is symmetric
// tridiagonal with diagonal 2c/dx^2 + V_j and off diagonal -c/dx^2. Two
// backends are available: the implicit QL iteration of LAPACK's Dsteqr, which
// works on the tridiagonal form directly, and a dense symmetric eigen
// decomposition. Both return every eigenpair; Options then keeps either the
// lowest Count states or all bound states (E < 0).
//
// Example:
//
//	states, err := solver.Solve(grid, potential, solver.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	for _, s := range states {
//	    fmt.Println(s.Energy)
//	}
package solver
