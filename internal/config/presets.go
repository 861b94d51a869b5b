package config

import "sort"

// Presets are ready-made single-mode setups, keyed by name.
var Presets = map[string]func() *Config{
	// bare exciton-photon exchange: n_x(t) = cos²(g t)
	"rabi": func() *Config {
		cfg := DefaultConfig()
		cfg.ExcitonicMode = ExcitonicMode{
			ExcitonEnergyEV: ptr(0.0), DampingEV: ptr(0.0), PumpingEV: ptr(0.0), InitialExcitons: ptr(1.0),
		}
		pm := &cfg.PhotonicModes
		pm.PhotonEnergyEV, pm.DampingEV, pm.PumpingEV = ptr(0.0), ptr(0.0), ptr(0.0)
		pm.StrengthEV, pm.InitialPhotons = ptr(0.01), ptr(0.0)
		cfg.Dynamic = Dynamic{TimeStepPs: ptr(0.002), TimeEndPs: ptr(1.0)}
		cfg.Spectra = Spectra{MinEnergyEV: ptr(-0.05), EnergyStepEV: ptr(0.0005), MaxEnergyEV: ptr(0.05)}
		return cfg
	},
	"lossless": func() *Config {
		cfg := DefaultConfig()
		cfg.ExcitonicMode.DampingEV, cfg.ExcitonicMode.PumpingEV = ptr(0.0), ptr(0.0)
		cfg.PhotonicModes.DampingEV, cfg.PhotonicModes.PumpingEV = ptr(0.0), ptr(0.0)
		cfg.PhotonicModes.InitialPhotons = ptr(0.5)
		cfg.Dynamic.TimeEndPs = ptr(2.0)
		return cfg
	},
	"pumped": func() *Config {
		cfg := DefaultConfig()
		cfg.ExcitonicMode.DampingEV, cfg.ExcitonicMode.PumpingEV = ptr(0.003), ptr(0.002)
		cfg.ExcitonicMode.InitialExcitons = ptr(0.0)
		cfg.Dynamic.TimeEndPs = ptr(10.0)
		return cfg
	},
	"detuned": func() *Config {
		cfg := DefaultConfig()
		cfg.PhotonicModes.PhotonEnergyEV = ptr(1.52)
		cfg.Spectra.MaxEnergyEV = ptr(1.57)
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
