package models

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"
)

func threeModeParams(t testing.TB) *Params {
	t.Helper()
	p, err := NewParams(Modes{
		Exciton: Mode{EnergyEV: 1.5, DampingEV: 0.02, PumpingEV: 0.01, Initial: 1},
		Photons: []Mode{
			{EnergyEV: 1.48, DampingEV: 0.03, PumpingEV: 0.005, StrengthEV: 0.1, Initial: 0.2},
			{EnergyEV: 1.53, DampingEV: 0.01, PumpingEV: 0.0, StrengthEV: 0.05, Initial: 0},
		},
		InteractionEV: 0.01,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// randomHermitian fills an N×N Hermitian matrix with reproducible values.
func randomHermitian(n int, seed int64) []complex128 {
	rng := rand.New(rand.NewSource(seed))
	s := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		s[i*n+i] = complex(rng.Float64(), 0)
		for j := i + 1; j < n; j++ {
			v := complex(rng.NormFloat64(), rng.NormFloat64())
			s[i*n+j] = v
			s[j*n+i] = cmplx.Conj(v)
		}
	}
	return s
}

func TestPolariton_RabiInitialDerivative(t *testing.T) {
	p, err := NewParams(Modes{
		Exciton: Mode{Initial: 1},
		Photons: []Mode{{StrengthEV: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := NewPolariton(p)
	n := m.InitialState()
	dn := make([]complex128, 4)
	m.Derive(0, n, dn)

	want := []complex128{0, -1i, 1i, 0}
	for k := range want {
		if cmplx.Abs(dn[k]-want[k]) > 1e-15 {
			t.Errorf("dn[%d] = %v, want %v", k, dn[k], want[k])
		}
	}
}

func TestPolariton_DerivativeIsHermitian(t *testing.T) {
	p := threeModeParams(t)
	m := NewPolariton(p)
	n := randomHermitian(p.N, 1)
	dn := make([]complex128, m.StateDim())
	m.Derive(0, n, dn)

	for i := 0; i < p.N; i++ {
		if imag(dn[i*p.N+i]) != 0 {
			t.Errorf("diagonal derivative %d has imaginary part %g", i, imag(dn[i*p.N+i]))
		}
		for j := i + 1; j < p.N; j++ {
			if dn[j*p.N+i] != cmplx.Conj(dn[i*p.N+j]) {
				t.Errorf("dn[%d,%d] = %v is not conj of dn[%d,%d] = %v", j, i, dn[j*p.N+i], i, j, dn[i*p.N+j])
			}
		}
	}
}

func TestPolariton_ReadsUpperTriangleOnly(t *testing.T) {
	p := threeModeParams(t)
	m := NewPolariton(p)
	n := randomHermitian(p.N, 2)
	dn := make([]complex128, m.StateDim())
	m.Derive(0, n, dn)

	garbled := append([]complex128(nil), n...)
	for i := 0; i < p.N; i++ {
		for j := 0; j < i; j++ {
			garbled[i*p.N+j] = complex(1e6, -1e6)
		}
	}
	dn2 := make([]complex128, m.StateDim())
	m.Derive(0, garbled, dn2)

	for k := range dn {
		if dn[k] != dn2[k] {
			t.Fatalf("lower triangle leaked into derivative at %d: %v vs %v", k, dn[k], dn2[k])
		}
	}
}

func TestPolariton_TraceBalance(t *testing.T) {
	p := threeModeParams(t)
	m := NewPolariton(p)
	n := randomHermitian(p.N, 3)
	dn := make([]complex128, m.StateDim())
	m.Derive(0, n, dn)

	// coupling terms exchange population and cancel in the trace
	got, want := 0.0, 0.0
	for i := 0; i < p.N; i++ {
		got += real(dn[i*p.N+i])
		want += p.P[i] - p.G[i]*real(n[i*p.N+i])
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("trace derivative %g, want %g", got, want)
	}
}

func TestPolariton_PumpingFromVacuum(t *testing.T) {
	p := threeModeParams(t)
	m := NewPolariton(p)
	n := make([]complex128, m.StateDim())
	dn := make([]complex128, m.StateDim())
	m.Derive(0, n, dn)

	for i := 0; i < p.N; i++ {
		if dn[i*p.N+i] != complex(p.P[i], 0) {
			t.Errorf("mode %d: dn = %v, want %g", i, dn[i*p.N+i], p.P[i])
		}
	}
}

func TestPolariton_KerrTerm(t *testing.T) {
	p := threeModeParams(t)
	n := randomHermitian(p.N, 4)
	withK := make([]complex128, p.N*p.N)
	NewPolariton(p).Derive(0, n, withK)

	q := *p
	q.K = 0
	withoutK := make([]complex128, p.N*p.N)
	NewPolariton(&q).Derive(0, n, withoutK)

	for j := 1; j < p.N; j++ {
		want := complex(0, 2*p.K) * n[0] * n[j]
		if d := cmplx.Abs(withK[j] - withoutK[j] - want); d > 1e-12 {
			t.Errorf("coherence (0,%d): kerr contribution off by %g", j, d)
		}
	}
	for i := 1; i < p.N; i++ {
		for j := i; j < p.N; j++ {
			if withK[i*p.N+j] != withoutK[i*p.N+j] {
				t.Errorf("kerr term leaked into (%d,%d)", i, j)
			}
		}
	}
}

func BenchmarkPolariton_Derive(b *testing.B) {
	m := NewPolariton(threeModeParams(b))
	n := randomHermitian(3, 7)
	dn := make([]complex128, len(n))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Derive(0, n, dn)
	}
}
