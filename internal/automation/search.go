package automation

import (
	"context"
	"fmt"
	"math"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
)

// Objective scores a point; GridSearch keeps the lowest score. An error
// aborts the search.
type Objective func(Point) (float64, error)

// Minimize scores by a named summary field or metric.
func Minimize(name string) Objective {
	return func(p Point) (float64, error) {
		v, ok := p.Value(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrNoOutcome, name)
		}
		return v, nil
	}
}

// Maximize is Minimize with the sign flipped.
func Maximize(name string) Objective {
	score := Minimize(name)
	return func(p Point) (float64, error) {
		v, err := score(p)
		return -v, err
	}
}

// GridSearch evaluates the cartesian product of parameter ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	Spectra    bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best point and its score. Points that fail to run are
// logged and skipped. Cancellation and objective errors stop the search.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective, logger kitlog.Logger) (Point, float64, error) {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return Point{}, 0, dynamo.Configf("params", "%d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "component", "search")

	best := math.Inf(1)
	var bestPoint Point
	found := false

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		p, err := evaluate(ctx, base, params, g.Spectra, logger)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			level.Warn(logger).Log("msg", "point failed", "params", fmt.Sprint(params), "err", err)
			return nil
		}
		score, err := objective(p)
		if err != nil {
			return err
		}
		level.Debug(logger).Log("msg", "point done", "params", fmt.Sprint(params), "score", score)
		if !found || score < best {
			best, bestPoint, found = score, p, true
		}
		return nil
	})
	if err != nil {
		return bestPoint, best, err
	}
	if !found {
		return Point{}, 0, fmt.Errorf("search: no grid point ran successfully")
	}
	return bestPoint, best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return visit(current)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, visit); err != nil {
			return err
		}
	}
	return nil
}
