package integrators

// RK4 is the classical fixed-step fourth order method. It never reports an error estimate.
type RK4 struct {
	k1, k2, k3, k4 []float64
	scratch        []float64
}

func newRK4(n int) *RK4 {
	return &RK4{
		k1:      make([]float64, n),
		k2:      make([]float64, n),
		k3:      make([]float64, n),
		k4:      make([]float64, n),
		scratch: make([]float64, n),
	}
}

func (r *RK4) Order() int         { return 4 }
func (r *RK4) Accept()            {}
func (r *RK4) Reset()             {}
func (r *RK4) Stiffness() float64 { return 0 }

func (r *RK4) Step(f Func, t, dt float64, x, out []float64) (float64, error) {
	n := len(x)

	if err := f(t, x, r.k1); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	if err := f(t+dt*0.5, r.scratch, r.k2); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	if err := f(t+dt*0.5, r.scratch, r.k3); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	if err := f(t+dt, r.scratch, r.k4); err != nil {
		return 0, err
	}

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return 0, nil
}
