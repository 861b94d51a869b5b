package integrators

import (
	"context"
	"fmt"

	"github.com/san-kum/spectrasim/internal/dynamo"
)

// ComplexFunc evaluates dz/dt = f(t, z) into dzdt using complex arithmetic.
type ComplexFunc func(t float64, z, dzdt []complex128)

// Encode maps a complex vector onto interleaved real pairs:
// z[i] becomes x[2i] = real(z[i]), x[2i+1] = imag(z[i]).
func Encode(z []complex128) []float64 {
	x := make([]float64, 2*len(z))
	EncodeTo(x, z)
	return x
}

// EncodeTo is Encode into a caller-owned slice of length 2*len(z).
func EncodeTo(x []float64, z []complex128) {
	for i, v := range z {
		x[2*i] = real(v)
		x[2*i+1] = imag(v)
	}
}

// Decode is the inverse of Encode. x must have even length.
func Decode(x []float64) []complex128 {
	if len(x)%2 != 0 {
		panic(fmt.Sprintf("integrators: cannot decode odd-length vector (%d)", len(x)))
	}
	z := make([]complex128, len(x)/2)
	DecodeTo(z, x)
	return z
}

// DecodeTo is Decode into a caller-owned slice of length len(x)/2.
func DecodeTo(z []complex128, x []float64) {
	for i := range z {
		z[i] = complex(x[2*i], x[2*i+1])
	}
}

// Complex integrates complex-valued systems on top of the real Solver.
type Complex struct {
	solver   *Solver
	progress dynamo.ProgressFunc
}

func NewComplex(opts Options, progress dynamo.ProgressFunc) (*Complex, error) {
	s, err := NewSolver(opts)
	if err != nil {
		return nil, err
	}
	return &Complex{solver: s, progress: progress}, nil
}

func (c *Complex) Stats() Stats { return c.solver.Stats() }

// Integrate returns z at every entry of times, starting from z0 at times[0].
// Progress is reported once per right-hand side evaluation and ctx is checked
// at the same points. A successful run ends with a final report of 100.
func (c *Complex) Integrate(ctx context.Context, f ComplexFunc, z0 []complex128, times []float64) ([][]complex128, error) {
	if len(times) == 0 {
		return nil, dynamo.Configf("time grid", "no output times")
	}
	start, end := times[0], times[len(times)-1]
	width := end - start

	z := make([]complex128, len(z0))
	dz := make([]complex128, len(z0))
	rhs := func(t float64, x, dxdt []float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if width > 0 {
			c.progress.Report(100 * (t - start) / width)
		}
		DecodeTo(z, x)
		f(t, z, dz)
		EncodeTo(dxdt, dz)
		return nil
	}

	xs, err := c.solver.Solve(rhs, Encode(z0), times)
	if err != nil {
		return nil, err
	}
	c.progress.Report(100)

	out := make([][]complex128, len(xs))
	for k, x := range xs {
		out[k] = Decode(x)
	}
	return out, nil
}
