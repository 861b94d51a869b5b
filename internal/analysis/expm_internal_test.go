package analysis

import (
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("complexExp", func() {
	It("exponentiates a diagonal generator elementwise", func() {
		a := []complex128{complex(-0.1, -2), 0, 0, complex(-0.3, 1.5)}
		re := mat.NewDense(2, 2, nil)
		im := mat.NewDense(2, 2, nil)
		newComplexExp(2).compute(a, 1.7, re, im)

		for i, want := range []complex128{cmplx.Exp(a[0] * 1.7), cmplx.Exp(a[3] * 1.7)} {
			got := complex(re.At(i, i), im.At(i, i))
			Expect(cmplx.Abs(got - want)).To(BeNumerically("<", 1e-12))
		}
		Expect(re.At(0, 1)).To(BeNumerically("~", 0, 1e-15))
		Expect(im.At(1, 0)).To(BeNumerically("~", 0, 1e-15))
	})

	It("reproduces the closed-form Rabi propagator", func() {
		// M = -i g σx has exp(M t) = cos(gt) I - i sin(gt) σx
		g, t := 0.7, 2.3
		a := []complex128{0, complex(0, -g), complex(0, -g), 0}
		re := mat.NewDense(2, 2, nil)
		im := mat.NewDense(2, 2, nil)
		newComplexExp(2).compute(a, t, re, im)

		c, s := math.Cos(g*t), math.Sin(g*t)
		Expect(re.At(0, 0)).To(BeNumerically("~", c, 1e-12))
		Expect(re.At(1, 1)).To(BeNumerically("~", c, 1e-12))
		Expect(im.At(0, 1)).To(BeNumerically("~", -s, 1e-12))
		Expect(im.At(1, 0)).To(BeNumerically("~", -s, 1e-12))
		Expect(re.At(0, 1)).To(BeNumerically("~", 0, 1e-12))
	})
})
