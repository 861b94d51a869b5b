package integrators

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rodas3 coefficients in the form
//
//	(I/(γh) - J) k_i = f(t + α_i h, y + Σ a_ij k_j) + Σ (c_ij/h) k_j + γ_i h ∂f/∂t
//	y1 = y + Σ m_i k_i,  err = Σ e_i k_i
//
// The method is L-stable and stiffly accurate; y1 is third order and the
// embedded solution second order.
const rosGamma = 0.5

var (
	rosA = [4][3]float64{
		{},
		{0},
		{2, 0},
		{2, 0, 1},
	}
	rosC = [4][3]float64{
		{},
		{4},
		{1, -1},
		{1, -1, -8.0 / 3.0},
	}
	rosAlpha     = [4]float64{0, 0, 1, 1}
	rosGammaTime = [4]float64{0.5, 1.5, 0, 0}
	rosM         = [4]float64{2, 0, 1, 1}
	rosE         = [4]float64{0, 0, 0, 1}
)

// Rosenbrock is the four-stage Rodas3 method. The Jacobian and ∂f/∂t are
// built by forward differences at the start of a step and reused across
// rejected attempts from the same point.
type Rosenbrock struct {
	rtol, atol float64

	jac      *mat.Dense
	iter     *mat.Dense
	lu       mat.LU
	jacValid bool
	jacNorm  float64
	lastH    float64

	f0, ft, fs, fp []float64
	k              [4][]float64
	rhs, stage     []float64
	errv, perturb  []float64
}

func newRosenbrock(n int, rtol, atol float64) *Rosenbrock {
	alloc := func() []float64 { return make([]float64, n) }
	r := &Rosenbrock{
		rtol: rtol, atol: atol,
		jac:  mat.NewDense(n, n, nil),
		iter: mat.NewDense(n, n, nil),
		f0:   alloc(), ft: alloc(), fs: alloc(), fp: alloc(),
		rhs: alloc(), stage: alloc(),
		errv: alloc(), perturb: alloc(),
	}
	for i := range r.k {
		r.k[i] = alloc()
	}
	return r
}

func (r *Rosenbrock) Order() int { return 3 }

func (r *Rosenbrock) Accept() { r.jacValid = false }

func (r *Rosenbrock) Reset() { r.jacValid = false }

// Stiffness returns h·‖J‖∞ for the last step.
func (r *Rosenbrock) Stiffness() float64 { return r.lastH * r.jacNorm }

func (r *Rosenbrock) jacobian(f Func, t float64, y []float64) error {
	if err := f(t, y, r.f0); err != nil {
		return err
	}
	sqrtEps := math.Sqrt(epsilon)
	copy(r.perturb, y)
	for j := range y {
		delta := sqrtEps * math.Max(1e-5, math.Abs(y[j]))
		r.perturb[j] = y[j] + delta
		if err := f(t, r.perturb, r.fp); err != nil {
			return err
		}
		r.perturb[j] = y[j]
		for i := range y {
			r.jac.Set(i, j, (r.fp[i]-r.f0[i])/delta)
		}
	}

	dt := sqrtEps * math.Max(1e-5, math.Abs(t))
	if err := f(t+dt, y, r.fp); err != nil {
		return err
	}
	for i := range y {
		r.ft[i] = (r.fp[i] - r.f0[i]) / dt
	}

	r.jacNorm = mat.Norm(r.jac, math.Inf(1))
	r.jacValid = true
	return nil
}

func (r *Rosenbrock) Step(f Func, t, h float64, y, out []float64) (float64, error) {
	n := len(y)
	if !r.jacValid {
		if err := r.jacobian(f, t, y); err != nil {
			return 0, err
		}
	}
	r.lastH = h

	r.iter.Scale(-1, r.jac)
	diag := 1 / (rosGamma * h)
	for i := 0; i < n; i++ {
		r.iter.Set(i, i, r.iter.At(i, i)+diag)
	}
	r.lu.Factorize(r.iter)
	if c := r.lu.Cond(); math.IsInf(c, 1) || c > 1/epsilon {
		return 0, errSingular
	}

	for s := 0; s < len(r.k); s++ {
		fs := r.f0
		if s > 0 && (rosAlpha[s] != 0 || !allZero(rosA[s][:s])) {
			for i := 0; i < n; i++ {
				v := y[i]
				for j := 0; j < s; j++ {
					v += rosA[s][j] * r.k[j][i]
				}
				r.stage[i] = v
			}
			if err := f(t+rosAlpha[s]*h, r.stage, r.fs); err != nil {
				return 0, err
			}
			fs = r.fs
		}

		for i := 0; i < n; i++ {
			v := fs[i] + rosGammaTime[s]*h*r.ft[i]
			for j := 0; j < s; j++ {
				v += rosC[s][j] / h * r.k[j][i]
			}
			r.rhs[i] = v
		}
		ks := mat.NewVecDense(n, r.k[s])
		if err := r.lu.SolveVecTo(ks, false, mat.NewVecDense(n, r.rhs)); err != nil {
			return 0, errSingular
		}
	}

	for i := 0; i < n; i++ {
		v, e := y[i], 0.0
		for s := range r.k {
			v += rosM[s] * r.k[s][i]
			e += rosE[s] * r.k[s][i]
		}
		out[i] = v
		r.errv[i] = e
	}

	return errorNorm(r.errv, y, out, r.rtol, r.atol), nil
}

func allZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
