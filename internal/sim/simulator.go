package sim

import (
	"context"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
)

// Simulator drives a Model across a time grid. A Simulator runs one dynamics
// integration at a time; use separate instances for concurrent runs.
type Simulator struct {
	opts     integrators.Options
	logger   kitlog.Logger
	progress dynamo.ProgressFunc
	metrics  []Metric
}

func New(opts integrators.Options, logger kitlog.Logger) *Simulator {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	opts.Logger = logger
	return &Simulator{
		opts:    opts,
		logger:  kitlog.With(logger, "component", "dynamics"),
		metrics: make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// OnProgress installs a callback receiving percent complete once per RHS evaluation.
func (s *Simulator) OnProgress(p dynamo.ProgressFunc) { s.progress = p }

// Run integrates the model from its initial state and returns one state per
// grid sample. Integration failures surface as *dynamo.IntegrationError with
// the last time reached; no partial trajectory is returned.
func (s *Simulator) Run(ctx context.Context, model Model, grid dynamo.TimeGrid) (*Result, error) {
	if grid.Len() == 0 {
		return nil, dynamo.Configf("time grid", "no samples")
	}
	adapter, err := integrators.NewComplex(s.opts, s.progress)
	if err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x0 := model.InitialState()
	n := x0.Modes()
	level.Debug(s.logger).Log("msg", "dynamics start", "modes", n, "samples", grid.Len(), "method", s.opts.Method)

	start := time.Now()
	states, err := adapter.Integrate(ctx, model.Derive, x0, grid.Times)
	if err != nil {
		level.Warn(s.logger).Log("msg", "dynamics failed", "err", err)
		return nil, err
	}

	traj := &dynamo.Trajectory{Grid: grid, Modes: n, States: make([]dynamo.State, len(states))}
	for k, z := range states {
		x := dynamo.State(z)
		t := grid.Times[k]
		if !x.IsValid() {
			return nil, &dynamo.IntegrationError{Time: t, Step: adapter.Stats().Steps, Wrapped: dynamo.ErrInvalidState}
		}
		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		x.Hermitize()
		traj.States[k] = x
	}

	result := &Result{
		Trajectory: traj,
		Stats:      adapter.Stats(),
		Metrics:    make(map[string]float64, len(s.metrics)),
		Elapsed:    time.Since(start),
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	level.Info(s.logger).Log("msg", "dynamics complete", "samples", traj.Len(), "steps", result.Stats.Steps,
		"rejected", result.Stats.Rejected, "switches", result.Stats.Switches, "elapsed", result.Elapsed)
	return result, nil
}
