package models

import (
	"math"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
)

// Mode holds the constants of a single oscillator, all in eV except Initial.
type Mode struct {
	EnergyEV   float64 `json:"energy_ev"`
	DampingEV  float64 `json:"damping_ev"`
	PumpingEV  float64 `json:"pumping_ev"`
	StrengthEV float64 `json:"strength_ev"`
	Initial    float64 `json:"initial"`
}

// Modes is the typed input to NewParams: one exciton and at least one photon.
type Modes struct {
	Exciton       Mode
	Photons       []Mode
	InteractionEV float64
}

// Params is the immutable per-mode constant set of one run. Index 0 is the
// exciton and indices 1..N-1 are the photonic modes. Callers must not modify
// the slices after construction.
type Params struct {
	N int
	W []float64
	// Gamma is the damping, P the pumping and G = Gamma - P the net gain.
	Gamma []float64
	P     []float64
	G     []float64
	// Coupling is the exciton coupling strength of each mode; Coupling[0] is unused and zero.
	Coupling []float64
	N0       []float64
	K        float64
}

func NewParams(m Modes) (*Params, error) {
	if len(m.Photons) == 0 {
		return nil, dynamo.Configf("photonic_modes.number_of_modes", "at least one photonic mode is required")
	}
	n := len(m.Photons) + 1
	p := &Params{
		N:        n,
		W:        make([]float64, n),
		Gamma:    make([]float64, n),
		P:        make([]float64, n),
		G:        make([]float64, n),
		Coupling: make([]float64, n),
		N0:       make([]float64, n),
		K:        m.InteractionEV,
	}

	all := append([]Mode{m.Exciton}, m.Photons...)
	for i, mode := range all {
		for _, v := range []float64{mode.EnergyEV, mode.DampingEV, mode.PumpingEV, mode.StrengthEV, mode.Initial} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, dynamo.Configf(modeField(i), "non-finite constant %g", v)
			}
		}
		p.W[i] = mode.EnergyEV
		p.Gamma[i] = mode.DampingEV
		p.P[i] = mode.PumpingEV
		p.G[i] = mode.DampingEV - mode.PumpingEV
		p.N0[i] = mode.Initial
		if i > 0 {
			p.Coupling[i] = mode.StrengthEV
		}
	}
	if math.IsNaN(p.K) || math.IsInf(p.K, 0) {
		return nil, dynamo.Configf("excitonic_mode.interaction_ev", "non-finite value %g", p.K)
	}
	return p, nil
}

func modeField(i int) string {
	if i == 0 {
		return "excitonic_mode"
	}
	return "photonic_modes"
}

// Photonic returns the number of cavity modes.
func (p *Params) Photonic() int { return p.N - 1 }

// FromConfig builds Params from a validated configuration. With more than one
// photonic mode every constant is read from its list file, and each list must
// hold exactly one value per mode.
func FromConfig(cfg *config.Config) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	em := cfg.ExcitonicMode
	modes := Modes{
		Exciton: Mode{
			EnergyEV:  *em.ExcitonEnergyEV,
			DampingEV: *em.DampingEV,
			PumpingEV: *em.PumpingEV,
			Initial:   *em.InitialExcitons,
		},
		InteractionEV: em.InteractionEV,
	}

	pm := cfg.PhotonicModes
	count := cfg.PhotonicCount()
	if count == 1 {
		modes.Photons = []Mode{{
			EnergyEV:   *pm.PhotonEnergyEV,
			DampingEV:  *pm.DampingEV,
			PumpingEV:  *pm.PumpingEV,
			StrengthEV: *pm.StrengthEV,
			Initial:    *pm.InitialPhotons,
		}}
		return NewParams(modes)
	}

	modes.Photons = make([]Mode, count)
	lists := []struct {
		field string
		path  string
		set   func(*Mode, float64)
	}{
		{"photonic_modes.file_photon_energies", pm.FilePhotonEnergies, func(m *Mode, v float64) { m.EnergyEV = v }},
		{"photonic_modes.file_photon_dampings", pm.FilePhotonDampings, func(m *Mode, v float64) { m.DampingEV = v }},
		{"photonic_modes.file_photon_pumpings", pm.FilePhotonPumpings, func(m *Mode, v float64) { m.PumpingEV = v }},
		{"photonic_modes.file_strengths", pm.FileStrengths, func(m *Mode, v float64) { m.StrengthEV = v }},
		{"photonic_modes.file_initial_photon_counts", pm.FileInitialPhotonCounts, func(m *Mode, v float64) { m.Initial = v }},
	}
	for _, l := range lists {
		values, err := config.ReadFloats(cfg.Resolve(l.path))
		if err != nil {
			return nil, err
		}
		if len(values) != count {
			return nil, dynamo.Configf(l.field, "%s holds %d values but number_of_modes is %d", l.path, len(values), count)
		}
		for i, v := range values {
			l.set(&modes.Photons[i], v)
		}
	}
	return NewParams(modes)
}
