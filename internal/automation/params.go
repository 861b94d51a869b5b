package automation

import (
	"sort"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
)

type setter struct {
	// photonic setters write the scalar photon fields, which only a
	// single-mode config reads.
	photonic bool
	set      func(c *config.Config, v float64)
}

var setters = map[string]setter{
	"photon_energy_ev":   {true, func(c *config.Config, v float64) { c.PhotonicModes.PhotonEnergyEV = &v }},
	"photon_damping_ev":  {true, func(c *config.Config, v float64) { c.PhotonicModes.DampingEV = &v }},
	"photon_pumping_ev":  {true, func(c *config.Config, v float64) { c.PhotonicModes.PumpingEV = &v }},
	"strength_ev":        {true, func(c *config.Config, v float64) { c.PhotonicModes.StrengthEV = &v }},
	"initial_photons":    {true, func(c *config.Config, v float64) { c.PhotonicModes.InitialPhotons = &v }},
	"exciton_energy_ev":  {false, func(c *config.Config, v float64) { c.ExcitonicMode.ExcitonEnergyEV = &v }},
	"exciton_damping_ev": {false, func(c *config.Config, v float64) { c.ExcitonicMode.DampingEV = &v }},
	"exciton_pumping_ev": {false, func(c *config.Config, v float64) { c.ExcitonicMode.PumpingEV = &v }},
	"initial_excitons":   {false, func(c *config.Config, v float64) { c.ExcitonicMode.InitialExcitons = &v }},
	"interaction_ev":     {false, func(c *config.Config, v float64) { c.ExcitonicMode.InteractionEV = v }},
	"time_end_ps":        {false, func(c *config.Config, v float64) { c.Dynamic.TimeEndPs = &v }},
}

// ParamNames lists the parameters Apply accepts.
func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply returns a validated copy of base with params overridden.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	out := base.Clone()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s, ok := setters[name]
		if !ok {
			return nil, dynamo.Configf(name, "unknown parameter (available: %v)", ParamNames())
		}
		if s.photonic && out.PhotonicCount() > 1 {
			return nil, dynamo.Configf(name, "scalar photon parameters need number_of_modes == 1")
		}
		s.set(out, params[name])
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
