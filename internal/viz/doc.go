// Package viz renders the terminal progress view used by the live command.
//
// A [Model] runs dynamics and spectra on a background worker and polls the
// reported progress on a fixed tick, so the numeric core never blocks on the
// UI. When the run finishes the view switches to a summary with population
// and spectrum plots.
//
// # Key Bindings
//
//	Tab - Toggle populations / spectrum
//	Q   - Cancel the run and quit
package viz
