package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	dir string
}

// ScenarioStep names its base config either by file or by preset.
type ScenarioStep struct {
	Name        string             `yaml:"name"`
	Config      string             `yaml:"config,omitempty"`
	Preset      string             `yaml:"preset,omitempty"`
	Method      string             `yaml:"method,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	SkipSpectra bool               `yaml:"skip_spectra,omitempty"`
}

// LoadScenario reads a scenario; step config paths resolve against its directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dynamo.ResourceError{Path: path, Wrapped: err}
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, &dynamo.ConfigurationError{Field: path, Reason: "malformed scenario", Wrapped: err}
	}
	if len(sc.Steps) == 0 {
		return nil, dynamo.Configf("steps", "scenario %q has no steps", sc.Name)
	}
	sc.dir = filepath.Dir(path)
	return &sc, nil
}

func (sc *Scenario) baseConfig(step ScenarioStep) (*config.Config, error) {
	switch {
	case step.Config != "" && step.Preset != "":
		return nil, dynamo.Configf("steps", "step %q sets both config and preset", step.Name)
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.dir, path)
		}
		return config.Load(path)
	case step.Preset != "":
		cfg := config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, dynamo.Configf("preset", "unknown preset %q", step.Preset)
		}
		return cfg, nil
	}
	return nil, dynamo.Configf("steps", "step %q needs a config or a preset", step.Name)
}

// RunScenario executes every step in order and stops at the first failure,
// returning the points completed before it.
func RunScenario(ctx context.Context, sc *Scenario, logger kitlog.Logger) ([]Point, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "component", "scenario", "scenario", sc.Name)

	points := make([]Point, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		base, err := sc.baseConfig(step)
		if err != nil {
			return points, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Method != "" {
			base.Solver.Method = step.Method
		}

		level.Info(logger).Log("msg", "running step", "step", i+1, "of", len(sc.Steps), "name", step.Name)
		p, err := evaluate(ctx, base, step.Params, !step.SkipSpectra, logger)
		if err != nil {
			return points, fmt.Errorf("step %d: %w", i+1, err)
		}
		points = append(points, p)
	}
	return points, nil
}
