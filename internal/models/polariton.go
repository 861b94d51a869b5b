package models

import (
	"math/cmplx"

	"github.com/san-kum/spectrasim/internal/dynamo"
)

// Polariton is the mean-field model of one exciton coupled to N-1 cavity modes.
// The state is the N×N occupation/coherence matrix flattened row-major.
type Polariton struct {
	p *Params
}

func NewPolariton(p *Params) *Polariton {
	return &Polariton{p: p}
}

func (m *Polariton) Params() *Params { return m.p }

// StateDim is the length of the flattened state.
func (m *Polariton) StateDim() int { return m.p.N * m.p.N }

// InitialState has the configured occupations on the diagonal and no coherences.
func (m *Polariton) InitialState() dynamo.State {
	return dynamo.DiagonalState(m.p.N0)
}

// Derive writes dn/dt into dn. Only the upper triangle of n is read; the lower
// triangle of dn is filled with conjugates so the result is Hermitian.
func (m *Polariton) Derive(t float64, n, dn []complex128) {
	p := m.p
	N := p.N
	at := func(i, j int) complex128 {
		if i <= j {
			return n[i*N+j]
		}
		return cmplx.Conj(n[j*N+i])
	}
	n00 := n[0]

	var sum complex128
	for l := 1; l < N; l++ {
		sum += complex(p.Coupling[l], 0) * (at(l, 0) - at(0, l))
	}
	dn[0] = complex(p.P[0]-p.G[0]*real(n00)+real(1i*sum), 0)

	for j := 1; j < N; j++ {
		n0j := n[j]
		var s complex128
		for l := 1; l < N; l++ {
			s += complex(p.Coupling[l], 0) * at(l, j)
		}
		d := complex(0, p.W[0]-p.W[j])*n0j -
			complex(0, p.Coupling[j])*n00 -
			complex((p.G[0]+p.G[j])/2, 0)*n0j +
			1i*s +
			complex(0, 2*p.K)*n00*n0j
		dn[j] = d
		dn[j*N] = cmplx.Conj(d)
	}

	for i := 1; i < N; i++ {
		for j := i; j < N; j++ {
			nij := n[i*N+j]
			d := complex(0, p.W[i]-p.W[j])*nij -
				complex(0, p.Coupling[j])*at(i, 0) +
				complex(0, p.Coupling[i])*at(0, j) -
				complex((p.G[i]+p.G[j])/2, 0)*nij
			if i == j {
				d = complex(real(d)+p.P[i], 0)
			}
			dn[i*N+j] = d
			dn[j*N+i] = cmplx.Conj(d)
		}
	}
}
