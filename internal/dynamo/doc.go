// Package dynamo provides the core data model for exciton-photon simulations.
//
// The package defines the types shared by the dynamics and spectra engines:
//
//   - [State]: flattened N×N complex occupation/coherence matrix
//   - [Trajectory]: one State per [TimeGrid] sample
//   - [EnergyGrid] and [Spectrum]: energy-domain output
//   - [ProgressFunc]: passive progress observer (percent 0-100)
//
// Mode 0 is always the exciton; modes 1..N-1 are photonic.
//
// # Units
//
// Energies are in eV. Times given in picoseconds are converted to the
// dimensionless integration time by dividing by [Hbar] (see [ToInternal]).
//
// # Thread Safety
//
// Values in this package are plain data. A Trajectory or Spectrum is owned by
// the run that produced it until handed to the caller, after which it must be
// treated as read-only.
package dynamo
