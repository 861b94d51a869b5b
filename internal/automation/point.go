package automation

import (
	"context"
	"errors"

	kitlog "github.com/go-kit/log"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/experiment"
)

// ErrNoOutcome reports an outcome name the point did not record.
var ErrNoOutcome = errors.New("automation: outcome not recorded")

// Point summarizes one run at fixed parameter values. The peak fields are only
// meaningful when HasSpectrum is set.
type Point struct {
	Params        map[string]float64
	FinalExcitons float64
	FinalPhotons  float64
	HasSpectrum   bool
	PeakEnergyEV  float64
	PeakIntensity float64
	Metrics       map[string]float64

	Experiment *experiment.Experiment
}

// SpectralOutcome reports whether name is only recorded for runs with spectra.
func SpectralOutcome(name string) bool {
	return name == "peak_energy_ev" || name == "peak_intensity"
}

// Value looks up a summary field or metric by name. Spectral outcomes of a
// point that ran without spectra are not found.
func (p Point) Value(name string) (float64, bool) {
	switch name {
	case "final_excitons":
		return p.FinalExcitons, true
	case "final_photons":
		return p.FinalPhotons, true
	case "peak_energy_ev":
		return p.PeakEnergyEV, p.HasSpectrum
	case "peak_intensity":
		return p.PeakIntensity, p.HasSpectrum
	}
	v, ok := p.Metrics[name]
	return v, ok
}

// evaluate runs cfg with params applied. Spectra are skipped unless spectra is set.
func evaluate(ctx context.Context, base *config.Config, params map[string]float64, spectra bool, logger kitlog.Logger) (Point, error) {
	cfg, err := Apply(base, params)
	if err != nil {
		return Point{}, err
	}
	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return Point{}, err
	}

	if spectra {
		_, _, err = exp.Run(ctx, nil)
	} else {
		_, err = exp.RunDynamics(ctx, nil)
	}
	if err != nil {
		return Point{}, err
	}

	p := Point{Params: params, Experiment: exp}
	res := exp.Dynamics()
	final := res.Trajectory.States[res.Trajectory.Len()-1].Populations()
	p.FinalExcitons = final[0]
	for _, n := range final[1:] {
		p.FinalPhotons += n
	}
	p.Metrics = res.Metrics
	if spec := exp.Spectrum(); spec != nil {
		p.HasSpectrum = true
		p.PeakEnergyEV, p.PeakIntensity = spec.Peak()
	}
	return p, nil
}
