package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hbar is the reduced Planck constant in eV·ps.
const Hbar = 6.582119569e-4

// gridSlack absorbs rounding in span/step so that 1.0/0.1 counts 10 intervals.
const gridSlack = 1e-9

// ToInternal converts picoseconds to dimensionless integration time.
func ToInternal(ps float64) float64 {
	return ps / Hbar
}

// ToPicoseconds is the inverse of ToInternal.
func ToPicoseconds(t float64) float64 {
	return t * Hbar
}

// DisplaySeconds converts integration time to seconds for plots and exports.
func DisplaySeconds(t float64) float64 {
	return t * Hbar * 1e-12
}

// TimeGrid is the ordered set of output times from 0 to End, in internal units.
type TimeGrid struct {
	Times []float64
	Step  float64
}

// NewTimeGrid builds floor(end/step)+1 samples spanning [0, end].
func NewTimeGrid(step, end float64) (TimeGrid, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return TimeGrid{}, Configf("dynamic_configuration.time_step_ps", "must be positive, got %g", step)
	}
	if !(end > 0) || math.IsInf(end, 0) {
		return TimeGrid{}, Configf("dynamic_configuration.time_end_ps", "must be positive, got %g", end)
	}
	n := gridCount(end, step)
	return TimeGrid{Times: span(n, 0, end), Step: step}, nil
}

func (g TimeGrid) Len() int { return len(g.Times) }

func (g TimeGrid) End() float64 {
	if len(g.Times) == 0 {
		return 0
	}
	return g.Times[len(g.Times)-1]
}

// EnergyGrid is the ordered set of energies from Min to Max in eV.
type EnergyGrid struct {
	Energies []float64
	Step     float64
}

// NewEnergyGrid builds floor((max-min)/step)+1 samples with a fixed count, so
// the last sample is exactly max rather than an accumulated sum of steps.
func NewEnergyGrid(min, step, max float64) (EnergyGrid, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return EnergyGrid{}, Configf("spectra_configuration.energy_step_ev", "must be positive, got %g", step)
	}
	if math.IsNaN(min) || math.IsNaN(max) || max < min {
		return EnergyGrid{}, Configf("spectra_configuration.max_energy_ev", "must not be below min_energy_ev (%g < %g)", max, min)
	}
	n := gridCount(max-min, step)
	return EnergyGrid{Energies: span(n, min, max), Step: step}, nil
}

func (g EnergyGrid) Len() int { return len(g.Energies) }

func gridCount(extent, step float64) int {
	return int(math.Floor(extent/step+gridSlack)) + 1
}

func span(n int, lo, hi float64) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[n-1] = hi
	return out
}
