package sim

import (
	"time"

	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
)

// Model is a complex mean-field system the simulator can integrate.
type Model interface {
	Derive(t float64, n, dn []complex128)
	InitialState() dynamo.State
	StateDim() int
}

// Metric accumulates a scalar over the samples of one run.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

type Result struct {
	Trajectory *dynamo.Trajectory
	Stats      integrators.Stats
	Metrics    map[string]float64
	Elapsed    time.Duration
}
