package experiment

import (
	"context"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/spectrasim/internal/analysis"
	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
	"github.com/san-kum/spectrasim/internal/models"
	"github.com/san-kum/spectrasim/internal/sim"
)

type Stage string

const (
	StageDynamics Stage = "dynamics"
	StageSpectra  Stage = "spectra"
)

// Observer receives progress for each stage in percent.
type Observer func(stage Stage, percent float64)

// Experiment owns one immutable parameter set and the latest results computed
// from it. At most one dynamics run and one spectra run may be in flight; a
// failed run leaves the previous results untouched.
type Experiment struct {
	cfg      *config.Config
	params   *models.Params
	model    *models.Polariton
	grid     dynamo.TimeGrid
	energies dynamo.EnergyGrid
	opts     integrators.Options
	registry *Registry
	logger   kitlog.Logger

	dynamicsRun sync.Mutex
	spectraRun  sync.Mutex

	mu       sync.RWMutex
	dynamics *sim.Result
	spectrum *dynamo.Spectrum
}

// New validates cfg and builds the parameter set, grids and solver options.
func New(cfg *config.Config, logger kitlog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	params, err := models.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	grid, err := cfg.TimeGrid()
	if err != nil {
		return nil, err
	}
	energies, err := cfg.EnergyGrid()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.SolverOptions()
	if err != nil {
		return nil, err
	}

	return &Experiment{
		cfg:      cfg,
		params:   params,
		model:    models.NewPolariton(params),
		grid:     grid,
		energies: energies,
		opts:     opts,
		registry: NewRegistry(),
		logger:   kitlog.With(logger, "component", "experiment"),
	}, nil
}

func (e *Experiment) Config() *config.Config            { return e.cfg }
func (e *Experiment) Params() *models.Params            { return e.params }
func (e *Experiment) TimeGrid() dynamo.TimeGrid         { return e.grid }
func (e *Experiment) EnergyGrid() dynamo.EnergyGrid     { return e.energies }
func (e *Experiment) SolverOptions() integrators.Options { return e.opts }
func (e *Experiment) Registry() *Registry               { return e.registry }

// Dynamics returns the last completed dynamics result, or nil.
func (e *Experiment) Dynamics() *sim.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dynamics
}

// Spectrum returns the last completed spectrum, or nil.
func (e *Experiment) Spectrum() *dynamo.Spectrum {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.spectrum
}

// RunDynamics integrates the model over the time grid. It fails with
// dynamo.ErrBusy if another dynamics run is in flight.
func (e *Experiment) RunDynamics(ctx context.Context, progress dynamo.ProgressFunc) (*sim.Result, error) {
	if !e.dynamicsRun.TryLock() {
		return nil, dynamo.ErrBusy
	}
	defer e.dynamicsRun.Unlock()

	s := sim.New(e.opts, e.logger)
	for _, m := range e.registry.DefaultMetrics() {
		s.AddMetric(m)
	}
	s.OnProgress(progress)

	res, err := s.Run(ctx, e.model, e.grid)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.dynamics = res
	e.mu.Unlock()
	return res, nil
}

// RunSpectra computes the emission spectrum of the last completed trajectory.
// It fails with dynamo.ErrNoTrajectory before any dynamics run has completed
// and with dynamo.ErrBusy if another spectra run is in flight.
func (e *Experiment) RunSpectra(ctx context.Context, progress dynamo.ProgressFunc) (*dynamo.Spectrum, error) {
	if !e.spectraRun.TryLock() {
		return nil, dynamo.ErrBusy
	}
	defer e.spectraRun.Unlock()

	dyn := e.Dynamics()
	if dyn == nil {
		return nil, &dynamo.SpectraError{Reason: "no trajectory to transform", Wrapped: dynamo.ErrNoTrajectory}
	}

	start := time.Now()
	spec, err := analysis.Emission(ctx, e.params, dyn.Trajectory, e.energies, progress)
	if err != nil {
		level.Warn(e.logger).Log("msg", "spectra failed", "err", err)
		return nil, err
	}
	peakE, peakI := spec.Peak()
	level.Info(e.logger).Log("msg", "spectra complete", "samples", spec.Grid.Len(), "peak_ev", peakE,
		"peak_intensity", peakI, "elapsed", time.Since(start))

	e.mu.Lock()
	e.spectrum = spec
	e.mu.Unlock()
	return spec, nil
}

// Run performs dynamics followed by spectra.
func (e *Experiment) Run(ctx context.Context, observe Observer) (*sim.Result, *dynamo.Spectrum, error) {
	stage := func(s Stage) dynamo.ProgressFunc {
		if observe == nil {
			return nil
		}
		return func(pct float64) { observe(s, pct) }
	}

	res, err := e.RunDynamics(ctx, stage(StageDynamics))
	if err != nil {
		return nil, nil, err
	}
	spec, err := e.RunSpectra(ctx, stage(StageSpectra))
	if err != nil {
		return res, nil, err
	}
	return res, spec, nil
}

// Comparison is the outcome of one solver method in Compare.
type Comparison struct {
	Method string
	Result *sim.Result
	Err    error
}

// Compare runs the dynamics under each named method concurrently. Results are
// not stored on the experiment.
func (e *Experiment) Compare(ctx context.Context, methods []string) ([]Comparison, error) {
	variants := make([]integrators.Options, len(methods))
	for i, name := range methods {
		opts, err := e.registry.Options(name, e.opts, e.grid.Step)
		if err != nil {
			return nil, dynamo.Configf("solver.method", "%v", err)
		}
		variants[i] = opts
	}

	ens := sim.NewEnsemble(e.logger, e.registry.DefaultMetrics)
	results, errs := ens.Run(ctx, e.model, e.grid, variants)

	out := make([]Comparison, len(methods))
	for i, name := range methods {
		out[i] = Comparison{Method: name, Result: results[i], Err: errs[i]}
	}
	return out, nil
}
