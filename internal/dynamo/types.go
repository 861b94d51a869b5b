package dynamo

import (
	"math"
	"math/cmplx"
)

// State is an N×N complex matrix flattened row-major: element (i,j) lives at i*N+j.
// Diagonal elements are mode occupations, off-diagonal elements are coherences.
type State []complex128

// NewState returns a zero state for n modes.
func NewState(n int) State {
	return make(State, n*n)
}

// DiagonalState returns a state with occupations on the diagonal and no coherences.
func DiagonalState(occupations []float64) State {
	n := len(occupations)
	s := NewState(n)
	for i, v := range occupations {
		s[i*n+i] = complex(v, 0)
	}
	return s
}

// Modes returns N for a state of length N².
func (s State) Modes() int {
	return int(math.Round(math.Sqrt(float64(len(s)))))
}

func (s State) At(i, j int) complex128 {
	return s[i*s.Modes()+j]
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// Populations returns the real parts of the diagonal.
func (s State) Populations() []float64 {
	n := s.Modes()
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		p[i] = real(s[i*n+i])
	}
	return p
}

// Total is the sum of all mode occupations.
func (s State) Total() float64 {
	sum := 0.0
	for _, v := range s.Populations() {
		sum += v
	}
	return sum
}

// Hermitize overwrites the strict lower triangle with the conjugate of the upper
// triangle and drops the imaginary part of the diagonal.
func (s State) Hermitize() {
	n := s.Modes()
	for i := 0; i < n; i++ {
		s[i*n+i] = complex(real(s[i*n+i]), 0)
		for j := i + 1; j < n; j++ {
			s[j*n+i] = cmplx.Conj(s[i*n+j])
		}
	}
}

// HermitianResidual returns max |s[j,i] - conj(s[i,j])| over all pairs.
func (s State) HermitianResidual() float64 {
	n := s.Modes()
	worst := 0.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := cmplx.Abs(s[j*n+i] - cmplx.Conj(s[i*n+j]))
			worst = math.Max(worst, d)
		}
	}
	return worst
}

// Trajectory is the ordered sequence of states produced by one dynamics run.
type Trajectory struct {
	Grid   TimeGrid
	Modes  int
	States []State
}

func (tr *Trajectory) Len() int {
	return len(tr.States)
}

// Population returns the real occupation time series of one mode.
func (tr *Trajectory) Population(mode int) []float64 {
	out := make([]float64, len(tr.States))
	idx := mode*tr.Modes + mode
	for k, s := range tr.States {
		out[k] = real(s[idx])
	}
	return out
}

// Spectrum holds the complex emission spectrum on an energy grid.
type Spectrum struct {
	Grid   EnergyGrid
	Values []complex128
	// Correlation is corr(t) on the trajectory's time grid, kept for diagnostics.
	Correlation []complex128
}

// Intensity returns the real part of every spectral value.
func (s *Spectrum) Intensity() []float64 {
	out := make([]float64, len(s.Values))
	for i, v := range s.Values {
		out[i] = real(v)
	}
	return out
}

// Peak returns the energy and intensity of the largest spectral value.
func (s *Spectrum) Peak() (energy, intensity float64) {
	intensity = math.Inf(-1)
	for i, v := range s.Values {
		if real(v) > intensity {
			intensity = real(v)
			energy = s.Grid.Energies[i]
		}
	}
	return energy, intensity
}

// ProgressFunc receives completion in percent (0-100). It must return quickly
// and must not block; it carries no correctness contract.
type ProgressFunc func(percent float64)

// Report calls p with percent clamped to [0, 100]. A nil ProgressFunc is a no-op.
func (p ProgressFunc) Report(percent float64) {
	if p == nil {
		return
	}
	p(math.Min(100, math.Max(0, percent)))
}
