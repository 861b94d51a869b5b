package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/spectrasim/internal/integrators"
	"github.com/san-kum/spectrasim/internal/metrics"
	"github.com/san-kum/spectrasim/internal/sim"
)

type method struct {
	description string
	configure   func(opts *integrators.Options, gridStep float64)
}

// Registry maps solver method names to option presets.
type Registry struct {
	methods map[string]method
}

func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]method)}

	r.methods[string(integrators.MethodAuto)] = method{
		description: "Dormand-Prince with automatic switch to Rosenbrock on stiffness",
		configure:   func(o *integrators.Options, _ float64) { o.Method = integrators.MethodAuto },
	}
	r.methods[string(integrators.MethodDopri5)] = method{
		description: "explicit adaptive Dormand-Prince 5(4)",
		configure:   func(o *integrators.Options, _ float64) { o.Method = integrators.MethodDopri5 },
	}
	r.methods[string(integrators.MethodRodas3)] = method{
		description: "L-stable Rodas3 Rosenbrock, finite-difference jacobian",
		configure:   func(o *integrators.Options, _ float64) { o.Method = integrators.MethodRodas3 },
	}
	r.methods[string(integrators.MethodRK4)] = method{
		description: "classical fixed-step RK4, twenty substeps per sample unless max_step_ps is set",
		configure: func(o *integrators.Options, gridStep float64) {
			o.Method = integrators.MethodRK4
			if o.MaxStep == 0 {
				o.MaxStep = gridStep / 20
			}
		},
	}

	return r
}

// Options derives the options for a named method from base.
func (r *Registry) Options(name string, base integrators.Options, gridStep float64) (integrators.Options, error) {
	m, ok := r.methods[name]
	if !ok {
		return base, fmt.Errorf("unknown method: %s", name)
	}
	opts := base
	m.configure(&opts, gridStep)
	return opts, nil
}

func (r *Registry) ListMethods() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Describe(name string) string {
	return r.methods[name].description
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return metrics.Standard()
}
