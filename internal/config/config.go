package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeStepPs   = 0.001
	DefaultTimeEndPs    = 5.0
	DefaultMinEnergyEV  = 1.45
	DefaultEnergyStepEV = 0.0005
	DefaultMaxEnergyEV  = 1.55
)

// Config mirrors the on-disk YAML layout. Required physical keys are pointers
// so that a missing key can be told apart from an explicit zero.
type Config struct {
	PhotonicModes PhotonicModes `yaml:"photonic_modes"`
	ExcitonicMode ExcitonicMode `yaml:"excitonic_mode"`
	Dynamic       Dynamic       `yaml:"dynamic_configuration"`
	Spectra       Spectra       `yaml:"spectra_configuration"`
	Solver        Solver        `yaml:"solver,omitempty"`

	// baseDir anchors relative list-file paths; set by Load.
	baseDir string
}

// PhotonicModes uses the scalar fields for a single mode and the file fields
// (one value per mode, in order) for more than one.
type PhotonicModes struct {
	NumberOfModes *int `yaml:"number_of_modes"`

	PhotonEnergyEV *float64 `yaml:"photon_energy_ev,omitempty"`
	DampingEV      *float64 `yaml:"damping_ev,omitempty"`
	PumpingEV      *float64 `yaml:"pumping_ev,omitempty"`
	StrengthEV     *float64 `yaml:"strength_ev,omitempty"`
	InitialPhotons *float64 `yaml:"initial_photons,omitempty"`

	FilePhotonEnergies      string `yaml:"file_photon_energies,omitempty"`
	FilePhotonDampings      string `yaml:"file_photon_dampings,omitempty"`
	FilePhotonPumpings      string `yaml:"file_photon_pumpings,omitempty"`
	FileStrengths           string `yaml:"file_strengths,omitempty"`
	FileInitialPhotonCounts string `yaml:"file_initial_photon_counts,omitempty"`
}

type ExcitonicMode struct {
	ExcitonEnergyEV *float64 `yaml:"exciton_energy_ev"`
	DampingEV       *float64 `yaml:"damping_ev"`
	PumpingEV       *float64 `yaml:"pumping_ev"`
	InitialExcitons *float64 `yaml:"initial_excitons"`
	// InteractionEV is the Kerr coefficient k. Zero disables the term.
	InteractionEV float64 `yaml:"interaction_ev,omitempty"`
}

type Dynamic struct {
	TimeStepPs *float64 `yaml:"time_step_ps"`
	TimeEndPs  *float64 `yaml:"time_end_ps"`
}

type Spectra struct {
	MinEnergyEV  *float64 `yaml:"min_energy_ev"`
	EnergyStepEV *float64 `yaml:"energy_step_ev"`
	MaxEnergyEV  *float64 `yaml:"max_energy_ev"`
}

// Solver tunes the ODE integration. Zero values fall back to the integrator defaults.
type Solver struct {
	Method    string  `yaml:"method,omitempty"`
	RelTol    float64 `yaml:"rtol,omitempty"`
	AbsTol    float64 `yaml:"atol,omitempty"`
	MaxSteps  int     `yaml:"max_steps,omitempty"`
	MaxStepPs float64 `yaml:"max_step_ps,omitempty"`
	Jacobian  bool    `yaml:"jacobian,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// DefaultConfig is one cavity mode resonant with a weakly pumped exciton.
func DefaultConfig() *Config {
	return &Config{
		PhotonicModes: PhotonicModes{
			NumberOfModes:  ptr(1),
			PhotonEnergyEV: ptr(1.5),
			DampingEV:      ptr(0.004),
			PumpingEV:      ptr(0.0),
			StrengthEV:     ptr(0.01),
			InitialPhotons: ptr(0.0),
		},
		ExcitonicMode: ExcitonicMode{
			ExcitonEnergyEV: ptr(1.5),
			DampingEV:       ptr(0.002),
			PumpingEV:       ptr(0.001),
			InitialExcitons: ptr(1.0),
		},
		Dynamic: Dynamic{
			TimeStepPs: ptr(DefaultTimeStepPs),
			TimeEndPs:  ptr(DefaultTimeEndPs),
		},
		Spectra: Spectra{
			MinEnergyEV:  ptr(DefaultMinEnergyEV),
			EnergyStepEV: ptr(DefaultEnergyStepEV),
			MaxEnergyEV:  ptr(DefaultMaxEnergyEV),
		},
	}
}

// Load reads and validates a YAML configuration. Relative list-file paths in
// the result resolve against the directory holding path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dynamo.ResourceError{Path: path, Wrapped: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes and validates YAML without touching the filesystem.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &dynamo.ConfigurationError{Reason: "malformed yaml", Wrapped: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &dynamo.ResourceError{Path: path, Wrapped: err}
	}
	return nil
}

// Clone returns a deep copy that shares no pointers with c.
func (c *Config) Clone() *Config {
	out := *c
	pm := &out.PhotonicModes
	pm.NumberOfModes = clonePtr(pm.NumberOfModes)
	pm.PhotonEnergyEV = clonePtr(pm.PhotonEnergyEV)
	pm.DampingEV = clonePtr(pm.DampingEV)
	pm.PumpingEV = clonePtr(pm.PumpingEV)
	pm.StrengthEV = clonePtr(pm.StrengthEV)
	pm.InitialPhotons = clonePtr(pm.InitialPhotons)
	em := &out.ExcitonicMode
	em.ExcitonEnergyEV = clonePtr(em.ExcitonEnergyEV)
	em.DampingEV = clonePtr(em.DampingEV)
	em.PumpingEV = clonePtr(em.PumpingEV)
	em.InitialExcitons = clonePtr(em.InitialExcitons)
	out.Dynamic.TimeStepPs = clonePtr(out.Dynamic.TimeStepPs)
	out.Dynamic.TimeEndPs = clonePtr(out.Dynamic.TimeEndPs)
	out.Spectra.MinEnergyEV = clonePtr(out.Spectra.MinEnergyEV)
	out.Spectra.EnergyStepEV = clonePtr(out.Spectra.EnergyStepEV)
	out.Spectra.MaxEnergyEV = clonePtr(out.Spectra.MaxEnergyEV)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Validate reports every missing or inconsistent key at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(field string, present bool) {
		if !present {
			errs = append(errs, dynamo.Configf(field, "required key is missing"))
		}
	}

	pm := c.PhotonicModes
	require("photonic_modes.number_of_modes", pm.NumberOfModes != nil)
	if pm.NumberOfModes != nil {
		switch n := *pm.NumberOfModes; {
		case n < 1:
			errs = append(errs, dynamo.Configf("photonic_modes.number_of_modes", "must be at least 1, got %d", n))
		case n == 1:
			require("photonic_modes.photon_energy_ev", pm.PhotonEnergyEV != nil)
			require("photonic_modes.damping_ev", pm.DampingEV != nil)
			require("photonic_modes.pumping_ev", pm.PumpingEV != nil)
			require("photonic_modes.strength_ev", pm.StrengthEV != nil)
			require("photonic_modes.initial_photons", pm.InitialPhotons != nil)
		default:
			require("photonic_modes.file_photon_energies", pm.FilePhotonEnergies != "")
			require("photonic_modes.file_photon_dampings", pm.FilePhotonDampings != "")
			require("photonic_modes.file_photon_pumpings", pm.FilePhotonPumpings != "")
			require("photonic_modes.file_strengths", pm.FileStrengths != "")
			require("photonic_modes.file_initial_photon_counts", pm.FileInitialPhotonCounts != "")
		}
	}

	em := c.ExcitonicMode
	require("excitonic_mode.exciton_energy_ev", em.ExcitonEnergyEV != nil)
	require("excitonic_mode.damping_ev", em.DampingEV != nil)
	require("excitonic_mode.pumping_ev", em.PumpingEV != nil)
	require("excitonic_mode.initial_excitons", em.InitialExcitons != nil)

	require("dynamic_configuration.time_step_ps", c.Dynamic.TimeStepPs != nil)
	require("dynamic_configuration.time_end_ps", c.Dynamic.TimeEndPs != nil)
	if c.Dynamic.TimeStepPs != nil && c.Dynamic.TimeEndPs != nil {
		if _, err := c.TimeGrid(); err != nil {
			errs = append(errs, err)
		}
	}

	require("spectra_configuration.min_energy_ev", c.Spectra.MinEnergyEV != nil)
	require("spectra_configuration.energy_step_ev", c.Spectra.EnergyStepEV != nil)
	require("spectra_configuration.max_energy_ev", c.Spectra.MaxEnergyEV != nil)
	if c.Spectra.MinEnergyEV != nil && c.Spectra.EnergyStepEV != nil && c.Spectra.MaxEnergyEV != nil {
		if _, err := c.EnergyGrid(); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := c.SolverOptions(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PhotonicCount is the number of cavity modes, or zero when unset.
func (c *Config) PhotonicCount() int {
	if c.PhotonicModes.NumberOfModes == nil {
		return 0
	}
	return *c.PhotonicModes.NumberOfModes
}

// Resolve anchors a relative list-file path at the config file's directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.baseDir == "" {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// WithAbsolutePaths returns a copy whose list-file paths no longer depend on
// the directory the config was loaded from.
func (c *Config) WithAbsolutePaths() *Config {
	out := c.Clone()
	pm := &out.PhotonicModes
	for _, p := range []*string{&pm.FilePhotonEnergies, &pm.FilePhotonDampings, &pm.FilePhotonPumpings, &pm.FileStrengths, &pm.FileInitialPhotonCounts} {
		if resolved := c.Resolve(*p); resolved != "" {
			if abs, err := filepath.Abs(resolved); err == nil {
				resolved = abs
			}
			*p = resolved
		}
	}
	return out
}

// SetBaseDir overrides the directory relative list-file paths resolve against.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

// TimeGrid converts the picosecond settings to an internal-unit grid.
func (c *Config) TimeGrid() (dynamo.TimeGrid, error) {
	if c.Dynamic.TimeStepPs == nil || c.Dynamic.TimeEndPs == nil {
		return dynamo.TimeGrid{}, dynamo.Configf("dynamic_configuration", "time_step_ps and time_end_ps are required")
	}
	return dynamo.NewTimeGrid(dynamo.ToInternal(*c.Dynamic.TimeStepPs), dynamo.ToInternal(*c.Dynamic.TimeEndPs))
}

func (c *Config) EnergyGrid() (dynamo.EnergyGrid, error) {
	s := c.Spectra
	if s.MinEnergyEV == nil || s.EnergyStepEV == nil || s.MaxEnergyEV == nil {
		return dynamo.EnergyGrid{}, dynamo.Configf("spectra_configuration", "min_energy_ev, energy_step_ev and max_energy_ev are required")
	}
	return dynamo.NewEnergyGrid(*s.MinEnergyEV, *s.EnergyStepEV, *s.MaxEnergyEV)
}

// SolverOptions maps the solver section onto integrator options.
func (c *Config) SolverOptions() (integrators.Options, error) {
	opts := integrators.DefaultOptions()
	s := c.Solver
	if s.Method != "" {
		m, err := integrators.ParseMethod(s.Method)
		if err != nil {
			return opts, err
		}
		opts.Method = m
	}
	if s.RelTol != 0 {
		opts.RelTol = s.RelTol
	}
	if s.AbsTol != 0 {
		opts.AbsTol = s.AbsTol
	}
	if s.MaxSteps != 0 {
		opts.MaxSteps = s.MaxSteps
	}
	opts.MaxStep = dynamo.ToInternal(s.MaxStepPs)
	if s.Jacobian {
		// any non-nil function trips the unsupported-option check
		opts.Jacobian = func(float64, []float64, *mat.Dense) {}
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("modes=%d time_end_ps=%g energies=[%g, %g]",
		c.PhotonicCount(), deref(c.Dynamic.TimeEndPs), deref(c.Spectra.MinEnergyEV), deref(c.Spectra.MaxEnergyEV))
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
