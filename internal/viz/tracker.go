package viz

import (
	"math"
	"sync/atomic"

	"github.com/san-kum/spectrasim/internal/experiment"
)

// Tracker holds the latest progress report. Observe never blocks and is safe
// to call from the worker while the UI reads with Load.
type Tracker struct {
	stage   atomic.Value
	percent atomic.Uint64
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.stage.Store(experiment.StageDynamics)
	return t
}

// Observe satisfies experiment.Observer.
func (t *Tracker) Observe(stage experiment.Stage, percent float64) {
	t.stage.Store(stage)
	t.percent.Store(math.Float64bits(percent))
}

func (t *Tracker) Load() (experiment.Stage, float64) {
	return t.stage.Load().(experiment.Stage), math.Float64frombits(t.percent.Load())
}
