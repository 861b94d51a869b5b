package analysis

import "gonum.org/v1/gonum/mat"

// complexExp computes exp(A·t) for an n×n complex A given row-major. The
// result is written into re and im, each n×n. The complex exponential is taken
// through the real embedding [[Re A, -Im A], [Im A, Re A]], whose exponential
// has the same block structure.
type complexExp struct {
	n        int
	embedded *mat.Dense
	exp      *mat.Dense
}

func newComplexExp(n int) *complexExp {
	return &complexExp{
		n:        n,
		embedded: mat.NewDense(2*n, 2*n, nil),
		exp:      mat.NewDense(2*n, 2*n, nil),
	}
}

func (c *complexExp) compute(a []complex128, t float64, re, im *mat.Dense) {
	n := c.n
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a[i*n+j] * complex(t, 0)
			c.embedded.Set(i, j, real(v))
			c.embedded.Set(i, j+n, -imag(v))
			c.embedded.Set(i+n, j, imag(v))
			c.embedded.Set(i+n, j+n, real(v))
		}
	}
	c.exp.Exp(c.embedded)
	re.Copy(c.exp.Slice(0, n, 0, n))
	im.Copy(c.exp.Slice(n, 2*n, 0, n))
}
