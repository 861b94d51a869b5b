// Package analysis turns a computed trajectory into derived observables.
//
//   - [Emission]: emission spectrum via the quantum regression theorem
//   - [Correlation]: the two-time correlation tr(exp(M t)·D) behind it
//   - [PowerSpectrum], [DominantFrequency]: FFT of population time series
//   - [PopulationPortrait]: two-mode occupation portraits for terminal plots
//
// # Emission spectra
//
// The trajectory is integrated over time into a correlation seed D, normalized
// by the total integrated photon population, and propagated with the linear
// generator M of the coupled modes:
//
//	spec, err := analysis.Emission(ctx, params, traj, energies, progress)
//	if errors.Is(err, dynamo.ErrZeroNormalization) {
//	    // no photon was ever present
//	}
package analysis
