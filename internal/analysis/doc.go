// Package analysis computes observables of a wave packet and its density.
//
//   - [Norm], [MeanPosition], [Spread]: moments of a density row
//   - [SplitAt], [SplitPotential]: reflected, inside and transmitted probability
//   - [Momentum]: momentum distribution of a wavefunction via FFT
//   - [PowerSpectrum]: amplitude spectrum of a real time series
//
// # Reflection and transmission
//
// After the packet has left the barrier region, the split of the last frame
// gives the reflection and transmission probabilities:
//
//	split := analysis.SplitPotential(grid, potential, frames.Row(last))
//	fmt.Printf("R=%.3f T=%.3f\n", split.Reflected, split.Transmitted)
package analysis
