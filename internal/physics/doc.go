// Package physics builds the inputs of a wave packet run: the spatial
// [dynamo.Grid], a rectangular [dynamo.Potential] and the initial Gaussian
// [dynamo.Wavefunction].
//
// Units follow hbar = 1 and 2m = 1, which is what the propagator's
// s = dt/dx^2 coefficient assumes. A packet launched with energy ratio e
// against a barrier of height v0 carries wavenumber
//
//	k := physics.Wavenumber(e, v0) // sqrt(2|e*v0|)
//
// and is normalised so that sum(|psi|^2)*dx is close to 1 whenever the grid
// comfortably contains the packet.
package physics
