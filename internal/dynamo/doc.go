// Package dynamo provides the core data types shared by the wave packet
// simulation:
//
//   - [Grid]: uniform 1D spatial discretisation
//   - [Potential]: V(x) sampled on the grid
//   - [Wavefunction]: real and imaginary parts of psi
//   - [History], [Frames]: recorded probability density rows
//   - [Eigenstate]: a stationary state of the discretised Hamiltonian
//   - [Observer], [Metric]: consumers of recorded density rows
//
// # Example
//
//	grid, _ := physics.NewGrid(0, 0.001, 2)
//	v := physics.NewRectangularPotential(grid, 0.8, 0.9, -4000)
//	psi, _ := physics.GaussianPacket(grid, 0.6, 0.05, physics.Wavenumber(5, -4000))
//
// # Thread Safety
//
// Wavefunction values are mutated in place by the propagator and are NOT
// safe for concurrent use. Frames and Eigenstates are read only once built.
package dynamo
