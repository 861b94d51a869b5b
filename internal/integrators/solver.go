package integrators

import (
	"errors"
	"fmt"
	"math"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Func evaluates dy/dt = f(t, y) into dydt. A non-nil error aborts the integration.
type Func func(t float64, y, dydt []float64) error

// JacobianFunc is the shape of a user-supplied Jacobian. Solvers here always
// build their own by finite differences; passing one is a configuration error.
type JacobianFunc func(t float64, y []float64, jac *mat.Dense)

type Method string

const (
	MethodAuto   Method = "auto"
	MethodDopri5 Method = "dopri5"
	MethodRodas3 Method = "rodas3"
	MethodRK4    Method = "rk4"
)

// Methods lists every supported method name.
func Methods() []Method {
	return []Method{MethodAuto, MethodDopri5, MethodRodas3, MethodRK4}
}

func ParseMethod(name string) (Method, error) {
	if name == "" {
		return MethodAuto, nil
	}
	for _, m := range Methods() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", dynamo.Configf("solver.method", "unknown method %q (available: %v)", name, Methods())
}

// Defaults match the classic LSODA driver.
const (
	DefaultTolerance = 1.49012e-8
	DefaultMaxSteps  = 500
)

type Options struct {
	Method Method
	RelTol float64
	AbsTol float64
	// MaxSteps bounds the internal steps taken between two consecutive output times.
	MaxSteps int
	// MaxStep caps the internal step size; zero means unbounded. For rk4 it is the fixed step.
	MaxStep     float64
	InitialStep float64
	Jacobian    JacobianFunc
	Logger      kitlog.Logger
}

func DefaultOptions() Options {
	return Options{
		Method:   MethodAuto,
		RelTol:   DefaultTolerance,
		AbsTol:   DefaultTolerance,
		MaxSteps: DefaultMaxSteps,
	}
}

func (o Options) Validate() error {
	if o.Jacobian != nil {
		return &dynamo.ConfigurationError{Field: "solver.jacobian", Reason: "user-supplied jacobian is not supported", Wrapped: dynamo.ErrJacobianUnsupported}
	}
	if _, err := ParseMethod(string(o.Method)); err != nil {
		return err
	}
	if !(o.RelTol > 0) {
		return dynamo.Configf("solver.rtol", "must be positive, got %g", o.RelTol)
	}
	if !(o.AbsTol > 0) {
		return dynamo.Configf("solver.atol", "must be positive, got %g", o.AbsTol)
	}
	if o.MaxSteps <= 0 {
		return dynamo.Configf("solver.max_steps", "must be positive, got %d", o.MaxSteps)
	}
	if o.MaxStep < 0 || o.InitialStep < 0 {
		return dynamo.Configf("solver.max_step_ps", "step limits must not be negative")
	}
	return nil
}

// Stats summarizes the work done by the last Solve call.
type Stats struct {
	Steps       int    `json:"steps"`
	Rejected    int    `json:"rejected"`
	Evaluations int    `json:"evaluations"`
	Switches    int    `json:"switches"`
	LastMethod  Method `json:"last_method"`
}

type stepper interface {
	// Step advances y by h into out and returns the weighted RMS error estimate.
	Step(f Func, t, h float64, y, out []float64) (float64, error)
	// Accept tells the stepper its last step was kept.
	Accept()
	Reset()
	// Order is the exponent denominator used for step size control.
	Order() int
	// Stiffness estimates h·ρ for the last step.
	Stiffness() float64
}

var errSingular = errors.New("integrators: iteration matrix is singular")

const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0

	stiffLimit    = 3.25
	nonStiffLimit = 2.0
	switchAfter   = 15
	calmReset     = 6
)

// stiffnessDetector decides when the auto method hands over between the
// explicit and the implicit stepper.
type stiffnessDetector struct {
	hits, calm int
}

// stiff reports whether the explicit stepper has been stability-bound long enough.
func (d *stiffnessDetector) stiff(hRho float64) bool {
	if hRho > stiffLimit {
		d.calm = 0
		d.hits++
		return d.hits >= switchAfter
	}
	d.calm++
	if d.calm >= calmReset {
		d.hits = 0
	}
	return false
}

// relaxed reports whether the implicit stepper has seen a non-stiff problem long enough.
func (d *stiffnessDetector) relaxed(hNorm float64) bool {
	if hNorm < nonStiffLimit {
		d.hits++
		return d.hits >= switchAfter
	}
	d.hits = 0
	return false
}

func (d *stiffnessDetector) reset() {
	d.hits, d.calm = 0, 0
}

// Solver integrates a real ODE system and reports the solution at requested times.
type Solver struct {
	opts   Options
	logger kitlog.Logger
	stats  Stats
}

func NewSolver(opts Options) (*Solver, error) {
	if opts.Method == "" {
		opts.Method = MethodAuto
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Solver{opts: opts, logger: kitlog.With(logger, "component", "solver")}, nil
}

func (s *Solver) Options() Options { return s.opts }

func (s *Solver) Stats() Stats { return s.stats }

// Solve integrates from times[0] and returns one state per entry of times.
// times must be strictly increasing.
func (s *Solver) Solve(f Func, y0 []float64, times []float64) ([][]float64, error) {
	if len(times) == 0 {
		return nil, dynamo.Configf("time grid", "no output times")
	}
	for k := 1; k < len(times); k++ {
		if !(times[k] > times[k-1]) {
			return nil, dynamo.Configf("time grid", "output times must increase (index %d)", k)
		}
	}

	s.stats = Stats{}
	counted := func(t float64, y, dydt []float64) error {
		s.stats.Evaluations++
		return f(t, y, dydt)
	}

	n := len(y0)
	out := make([][]float64, len(times))
	out[0] = append([]float64(nil), y0...)
	y := append([]float64(nil), y0...)
	ynew := make([]float64, n)

	explicit := newDormandPrince(n, s.opts.RelTol, s.opts.AbsTol)
	implicit := newRosenbrock(n, s.opts.RelTol, s.opts.AbsTol)

	var st stepper
	method := s.opts.Method
	switch method {
	case MethodRodas3:
		st = implicit
	case MethodRK4:
		st = newRK4(n)
	default:
		st = explicit
		if method == MethodAuto {
			method = MethodDopri5
		}
	}
	s.stats.LastMethod = method

	t := times[0]
	h := s.opts.InitialStep
	if h == 0 {
		var err error
		h, err = s.initialStep(counted, t, y, times[len(times)-1]-t)
		if err != nil {
			return nil, &dynamo.IntegrationError{Time: t, Wrapped: err}
		}
	}

	var detector stiffnessDetector
	for k := 1; k < len(times); k++ {
		tout := times[k]
		taken := 0
		for t < tout {
			if taken >= s.opts.MaxSteps {
				return nil, &dynamo.IntegrationError{Time: t, Step: s.stats.Steps, Wrapped: dynamo.ErrStepBudget}
			}
			if s.opts.Method == MethodRK4 {
				h = tout - t
			}
			if s.opts.MaxStep > 0 {
				h = math.Min(h, s.opts.MaxStep)
			}
			hStep := h
			clamped := false
			if t+hStep >= tout || tout-(t+hStep) < 1e-12*math.Abs(tout) {
				hStep = tout - t
				clamped = true
			}
			if hStep < minStep(t) {
				return nil, &dynamo.IntegrationError{Time: t, Step: s.stats.Steps, Wrapped: dynamo.ErrStepTooSmall}
			}

			errNorm, err := st.Step(counted, t, hStep, y, ynew)
			taken++
			s.stats.Steps++
			if errors.Is(err, errSingular) {
				s.stats.Rejected++
				h = hStep * 0.5
				continue
			}
			if err != nil {
				return nil, &dynamo.IntegrationError{Time: t, Step: s.stats.Steps, Wrapped: err}
			}

			if s.opts.Method == MethodRK4 && !finite(ynew) {
				return nil, &dynamo.IntegrationError{Time: t, Step: s.stats.Steps, Wrapped: dynamo.ErrInvalidState}
			}
			if errNorm <= 1 && finite(ynew) {
				if clamped {
					t = tout
				} else {
					t += hStep
				}
				copy(y, ynew)
				st.Accept()

				fac := maxScale
				if errNorm > 0 {
					fac = math.Min(maxScale, safety*math.Pow(errNorm, -1/float64(st.Order())))
				}
				// clamped steps only ever shrink h
				if !clamped || fac < 1 {
					h = hStep * fac
				}

				if s.opts.Method == MethodAuto && !clamped {
					var handOver bool
					if st == stepper(explicit) {
						handOver = detector.stiff(st.Stiffness())
					} else {
						handOver = detector.relaxed(st.Stiffness())
					}
					if handOver {
						st = s.switchMethod(st, explicit, implicit, t, hStep)
						detector.reset()
					}
				}
				continue
			}

			s.stats.Rejected++
			fac := minScale
			if errNorm > 0 && !math.IsNaN(errNorm) && !math.IsInf(errNorm, 0) {
				fac = math.Max(minScale, safety*math.Pow(errNorm, -1/float64(st.Order())))
			}
			h = hStep * math.Min(fac, 1)
		}
		out[k] = append([]float64(nil), y...)
	}

	level.Debug(s.logger).Log("msg", "solve complete", "steps", s.stats.Steps, "rejected", s.stats.Rejected,
		"evaluations", s.stats.Evaluations, "switches", s.stats.Switches, "method", s.stats.LastMethod)
	return out, nil
}

func (s *Solver) switchMethod(st stepper, explicit *DormandPrince, implicit *Rosenbrock, t, h float64) stepper {
	s.stats.Switches++
	next, name := stepper(implicit), MethodRodas3
	if st != stepper(explicit) {
		next, name = explicit, MethodDopri5
	}
	next.Reset()
	s.stats.LastMethod = name
	level.Debug(s.logger).Log("msg", "switching method", "to", name, "t", t, "h", h)
	return next
}

// initialStep follows the Hairer-Nørsett-Wanner starting step heuristic.
func (s *Solver) initialStep(f Func, t float64, y []float64, span float64) (float64, error) {
	n := len(y)
	f0 := make([]float64, n)
	if err := f(t, y, f0); err != nil {
		return 0, err
	}
	scale := make([]float64, n)
	for i := range y {
		scale[i] = s.opts.AbsTol + s.opts.RelTol*math.Abs(y[i])
	}
	d0 := rms(y, scale)
	d1 := rms(f0, scale)

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	y1 := make([]float64, n)
	for i := range y {
		y1[i] = y[i] + h0*f0[i]
	}
	f1 := make([]float64, n)
	if err := f(t+h0, y1, f1); err != nil {
		return 0, err
	}
	for i := range f1 {
		f1[i] -= f0[i]
	}
	d2 := rms(f1, scale) / h0

	var h1 float64
	if math.Max(d1, d2) <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}
	return math.Min(math.Min(100*h0, h1), span), nil
}

const epsilon = 2.220446049250313e-16

func minStep(t float64) float64 {
	return 16 * epsilon * math.Max(math.Abs(t), 1)
}

func rms(v, scale []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for i := range v {
		r := v[i] / scale[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

// errorNorm is the weighted RMS of errv using the larger of |y| and |ynew|.
func errorNorm(errv, y, ynew []float64, rtol, atol float64) float64 {
	if len(errv) == 0 {
		return 0
	}
	sum := 0.0
	for i := range errv {
		sc := atol + rtol*math.Max(math.Abs(y[i]), math.Abs(ynew[i]))
		r := errv[i] / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errv)))
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (s Stats) String() string {
	return fmt.Sprintf("steps=%d rejected=%d evals=%d switches=%d method=%s", s.Steps, s.Rejected, s.Evaluations, s.Switches, s.LastMethod)
}
