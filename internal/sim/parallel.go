package sim

import (
	"context"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
)

// Ensemble runs the same model under several solver configurations at once.
// Each variant gets its own Simulator and metric instances.
type Ensemble struct {
	logger     kitlog.Logger
	newMetrics func() []Metric
}

func NewEnsemble(logger kitlog.Logger, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{logger: logger, newMetrics: newMetrics}
}

// Run returns results and errors indexed like variants. A failed variant does
// not stop the others.
func (e *Ensemble) Run(ctx context.Context, model Model, grid dynamo.TimeGrid, variants []integrators.Options) ([]*Result, []error) {
	results := make([]*Result, len(variants))
	errs := make([]error, len(variants))

	var wg sync.WaitGroup
	for i := range variants {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s := New(variants[idx], e.logger)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}
			results[idx], errs[idx] = s.Run(ctx, model, grid)
		}(i)
	}

	wg.Wait()
	return results, errs
}
