package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestUnitRoundTrip(t *testing.T) {
	for _, ps := range []float64{1e-6, 0.01, 1, 3.5, 250, 1e6} {
		back := ToPicoseconds(ToInternal(ps))
		if math.Abs(back-ps) > 1e-12*ps {
			t.Errorf("round trip %g ps -> %g ps", ps, back)
		}
	}
}

func TestDisplaySeconds(t *testing.T) {
	got := DisplaySeconds(ToInternal(2))
	if math.Abs(got-2e-12) > 1e-24 {
		t.Errorf("DisplaySeconds = %g, want 2e-12", got)
	}
}

func TestNewTimeGrid(t *testing.T) {
	tests := []struct {
		step, end float64
		n         int
	}{
		{0.1, 1.0, 11},
		{0.25, 1.0, 5},
		{0.3, 1.0, 4},
		{2, 1, 1},
	}

	for _, tt := range tests {
		g, err := NewTimeGrid(tt.step, tt.end)
		if err != nil {
			t.Fatalf("NewTimeGrid(%g, %g): %v", tt.step, tt.end, err)
		}
		if g.Len() != tt.n {
			t.Errorf("NewTimeGrid(%g, %g) len = %d, want %d", tt.step, tt.end, g.Len(), tt.n)
		}
		if g.Times[0] != 0 {
			t.Errorf("first sample = %g, want 0", g.Times[0])
		}
		if g.Step != tt.step {
			t.Errorf("step = %g, want %g", g.Step, tt.step)
		}
	}
}

func TestNewTimeGrid_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		step, end float64
	}{
		{"zero step", 0, 1},
		{"negative step", -0.1, 1},
		{"zero end", 0.1, 0},
		{"negative end", 0.1, -1},
		{"nan step", math.NaN(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTimeGrid(tt.step, tt.end)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestNewEnergyGrid_EndsAtMax(t *testing.T) {
	g, err := NewEnergyGrid(1.0, 0.1, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 11 {
		t.Errorf("len = %d, want 11", g.Len())
	}
	if last := g.Energies[g.Len()-1]; last != 2.0 {
		t.Errorf("last energy = %.17g, want exactly 2", last)
	}
	for i := 1; i < g.Len(); i++ {
		if g.Energies[i] <= g.Energies[i-1] {
			t.Fatalf("energies not increasing at %d", i)
		}
	}
}

func TestNewEnergyGrid_SinglePoint(t *testing.T) {
	g, err := NewEnergyGrid(1.5, 0.1, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 1 || g.Energies[0] != 1.5 {
		t.Errorf("got %v, want [1.5]", g.Energies)
	}
}

func TestNewEnergyGrid_Invalid(t *testing.T) {
	if _, err := NewEnergyGrid(2, 0.1, 1); err == nil {
		t.Error("expected error for max < min")
	}
	if _, err := NewEnergyGrid(1, 0, 2); err == nil {
		t.Error("expected error for zero step")
	}
}
