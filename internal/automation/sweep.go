package automation

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
)

// ParameterSweep varies one parameter over an evenly spaced range.
type ParameterSweep struct {
	Param    string
	Min, Max float64
	Steps    int
	Spectra  bool
}

// Values returns the swept parameter values, ending exactly at Max.
func (s ParameterSweep) Values() []float64 {
	if s.Steps == 1 {
		return []float64{s.Min}
	}
	return floats.Span(make([]float64, s.Steps), s.Min, s.Max)
}

func (s ParameterSweep) validate() error {
	if s.Steps < 1 {
		return dynamo.Configf("steps", "must be at least 1, got %d", s.Steps)
	}
	if s.Steps > 1 && !(s.Max > s.Min) {
		return dynamo.Configf(s.Param, "range [%g, %g] is empty", s.Min, s.Max)
	}
	return nil
}

// RunSweep evaluates base at every value of the sweep, in order. The first
// failing point aborts the sweep and the points computed so far are returned.
func RunSweep(ctx context.Context, base *config.Config, sweep ParameterSweep, logger kitlog.Logger) ([]Point, error) {
	if err := sweep.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "component", "sweep", "param", sweep.Param)

	values := sweep.Values()
	points := make([]Point, 0, len(values))
	for i, v := range values {
		p, err := evaluate(ctx, base, map[string]float64{sweep.Param: v}, sweep.Spectra, logger)
		if err != nil {
			return points, fmt.Errorf("sweep %s=%g: %w", sweep.Param, v, err)
		}
		points = append(points, p)
		level.Info(logger).Log("msg", "point done", "index", i+1, "of", len(values), "value", v)
	}
	return points, nil
}
