package integrators

import "math"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DormandPrince is the explicit 5(4) embedded pair. The last stage derivative
// is reused as the first stage of the next step (FSAL).
type DormandPrince struct {
	rtol, atol float64

	k1, k2, k3, k4, k5, k6, k7 []float64
	stage, errv                []float64
	fsal                       bool
	stiffness                  float64
}

func newDormandPrince(n int, rtol, atol float64) *DormandPrince {
	alloc := func() []float64 { return make([]float64, n) }
	return &DormandPrince{
		rtol: rtol, atol: atol,
		k1: alloc(), k2: alloc(), k3: alloc(), k4: alloc(), k5: alloc(), k6: alloc(), k7: alloc(),
		stage: alloc(), errv: alloc(),
	}
}

func (r *DormandPrince) Order() int { return 5 }

func (r *DormandPrince) Reset() { r.fsal = false }

func (r *DormandPrince) Accept() {
	r.k1, r.k7 = r.k7, r.k1
	r.fsal = true
}

func (r *DormandPrince) Stiffness() float64 { return r.stiffness }

func (r *DormandPrince) Step(f Func, t, dt float64, x, xNew []float64) (float64, error) {
	n := len(x)

	if !r.fsal {
		if err := f(t, x, r.k1); err != nil {
			return 0, err
		}
		r.fsal = true
	}
	k1, k2, k3, k4, k5, k6, k7 := r.k1, r.k2, r.k3, r.k4, r.k5, r.k6, r.k7
	xs := r.stage

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*b21*k1[i]
	}
	if err := f(t+a2*dt, xs, k2); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	if err := f(t+a3*dt, xs, k3); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	if err := f(t+a4*dt, xs, k4); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	if err := f(t+a5*dt, xs, k5); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	if err := f(t+dt, xs, k6); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	if err := f(t+dt, xNew, k7); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		r.errv[i] = dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}

	// Stages 6 and 7 both sit at t+dt, so |k7-k6|/|xNew-x6| estimates the
	// dominant eigenvalue magnitude.
	num, den := 0.0, 0.0
	for i := 0; i < n; i++ {
		dk := k7[i] - k6[i]
		dx := xNew[i] - xs[i]
		num += dk * dk
		den += dx * dx
	}
	r.stiffness = 0
	if den > 0 {
		r.stiffness = dt * math.Sqrt(num/den)
	}

	return errorNorm(r.errv, x, xNew, r.rtol, r.atol), nil
}
