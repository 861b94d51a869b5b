package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/spectrasim/internal/dynamo"
)

func TestPopulationDrift(t *testing.T) {
	m := NewPopulationDrift()

	m.Observe(dynamo.DiagonalState([]float64{1, 0}), 0)
	m.Observe(dynamo.DiagonalState([]float64{0.4, 0.6}), 1)
	if m.Value() != 0 {
		t.Errorf("exchange between modes should not drift, got %g", m.Value())
	}

	m.Observe(dynamo.DiagonalState([]float64{0.5, 0.6}), 2)
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected drift 0.1, got %g", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestPopulationDrift_EmptyStart(t *testing.T) {
	m := NewPopulationDrift()
	m.Observe(dynamo.DiagonalState([]float64{0, 0}), 0)
	m.Observe(dynamo.DiagonalState([]float64{0.25, 0}), 1)
	if m.Value() != 0.25 {
		t.Errorf("expected absolute drift from empty start, got %g", m.Value())
	}
}

func TestHermitianResidual(t *testing.T) {
	m := NewHermitianResidual()
	s := dynamo.DiagonalState([]float64{1, 0})
	s[1] = 0.5 + 0.5i
	s[2] = 0.5 - 0.5i
	m.Observe(s, 0)
	if m.Value() != 0 {
		t.Errorf("hermitian state has residual %g", m.Value())
	}

	s[2] = 0.5 - 0.4i
	m.Observe(s, 1)
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected residual 0.1, got %g", m.Value())
	}
}

func TestPeakPhoton(t *testing.T) {
	m := NewPeakPhoton()
	m.Observe(dynamo.DiagonalState([]float64{5, 0.1, 0.2}), 0)
	m.Observe(dynamo.DiagonalState([]float64{5, 0.7, 0.2}), 3)
	m.Observe(dynamo.DiagonalState([]float64{5, 0.3, 0.2}), 4)

	if m.Value() != 0.7 || m.Time() != 3 {
		t.Errorf("peak = %g at %g, want 0.7 at 3", m.Value(), m.Time())
	}
}

func TestStandard(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Standard() {
		names[m.Name()] = true
	}
	for _, want := range []string{"population_drift", "hermitian_residual", "peak_photon_population"} {
		if !names[want] {
			t.Errorf("missing metric %s", want)
		}
	}
}
