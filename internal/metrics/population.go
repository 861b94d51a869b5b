package metrics

import (
	"math"

	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/sim"
)

// Standard returns fresh instances of every metric recorded with a run.
func Standard() []sim.Metric {
	return []sim.Metric{NewPopulationDrift(), NewHermitianResidual(), NewPeakPhoton()}
}

// PopulationDrift is the largest relative deviation of the total occupation
// from its initial value. It is zero for a closed lossless system.
type PopulationDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewPopulationDrift() *PopulationDrift {
	return &PopulationDrift{name: "population_drift"}
}

func (p *PopulationDrift) Name() string { return p.name }

func (p *PopulationDrift) Observe(x dynamo.State, t float64) {
	total := x.Total()
	if p.samples == 0 {
		p.initial = total
	}
	p.samples++

	scale := math.Abs(p.initial)
	if scale == 0 {
		scale = 1
	}
	p.maxDrift = math.Max(p.maxDrift, math.Abs(total-p.initial)/scale)
}

func (p *PopulationDrift) Value() float64 { return p.maxDrift }

func (p *PopulationDrift) Reset() {
	p.initial = 0
	p.maxDrift = 0
	p.samples = 0
}

// HermitianResidual tracks max |n[j,i] - conj(n[i,j])| over raw solver output.
type HermitianResidual struct {
	worst float64
}

func NewHermitianResidual() *HermitianResidual { return &HermitianResidual{} }

func (h *HermitianResidual) Name() string { return "hermitian_residual" }

func (h *HermitianResidual) Observe(x dynamo.State, t float64) {
	h.worst = math.Max(h.worst, x.HermitianResidual())
}

func (h *HermitianResidual) Value() float64 { return h.worst }

func (h *HermitianResidual) Reset() { h.worst = 0 }

// PeakPhoton is the largest occupation reached by any photonic mode.
type PeakPhoton struct {
	peak float64
	at   float64
}

func NewPeakPhoton() *PeakPhoton { return &PeakPhoton{} }

func (p *PeakPhoton) Name() string { return "peak_photon_population" }

func (p *PeakPhoton) Observe(x dynamo.State, t float64) {
	for i, v := range x.Populations() {
		if i > 0 && v > p.peak {
			p.peak = v
			p.at = t
		}
	}
}

func (p *PeakPhoton) Value() float64 { return p.peak }

// Time is the internal time at which the peak was first reached.
func (p *PeakPhoton) Time() float64 { return p.at }

func (p *PeakPhoton) Reset() {
	p.peak = 0
	p.at = 0
}
