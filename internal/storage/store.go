package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/spectrasim/internal/config"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/integrators"
	"github.com/san-kum/spectrasim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	dynamicsFile = "dynamics.tsv"
	spectrumFile = "spectrum.tsv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Modes     int                `json:"modes"`
	Samples   int                `json:"samples"`
	TimeEndPs float64            `json:"time_end_ps"`
	Solver    integrators.Stats  `json:"solver"`
	ElapsedMs int64              `json:"elapsed_ms"`
	Metrics   map[string]float64 `json:"metrics"`

	HasSpectrum   bool    `json:"has_spectrum"`
	PeakEnergyEV  float64 `json:"peak_energy_ev,omitempty"`
	PeakIntensity float64 `json:"peak_intensity,omitempty"`
}

// Run is everything persisted for one simulation. Spectrum may be nil.
type Run struct {
	Config   *config.Config
	Dynamics *sim.Result
	Spectrum *dynamo.Spectrum
}

// Save writes a new run directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	if run.Dynamics == nil || run.Dynamics.Trajectory == nil {
		return "", dynamo.ErrNoTrajectory
	}
	now := time.Now()
	runID := fmt.Sprintf("polariton_%d", now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	traj := run.Dynamics.Trajectory
	meta := RunMetadata{
		ID:        runID,
		Timestamp: now,
		Modes:     traj.Modes,
		Samples:   traj.Len(),
		TimeEndPs: dynamo.ToPicoseconds(traj.Grid.End()),
		Solver:    run.Dynamics.Stats,
		ElapsedMs: run.Dynamics.Elapsed.Milliseconds(),
		Metrics:   run.Dynamics.Metrics,
	}
	if run.Spectrum != nil {
		meta.HasSpectrum = true
		meta.PeakEnergyEV, meta.PeakIntensity = run.Spectrum.Peak()
	}

	if run.Config != nil {
		if err := config.Save(filepath.Join(runDir, configFile), run.Config.WithAbsolutePaths()); err != nil {
			return "", err
		}
	}
	if err := writeFile(filepath.Join(runDir, dynamicsFile), func(w io.Writer) error {
		return WriteDynamics(w, traj)
	}); err != nil {
		return "", err
	}
	if run.Spectrum != nil {
		if err := writeFile(filepath.Join(runDir, spectrumFile), func(w io.Writer) error {
			return WriteSpectrum(w, run.Spectrum)
		}); err != nil {
			return "", err
		}
	}

	// metadata last, so List only sees complete runs
	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}
	return runID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every complete run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadDynamics(runID string) (*Dynamics, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, dynamicsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDynamics(f)
}

// LoadSpectrum returns ErrNoSpectrum for runs saved without one.
func (s *Store) LoadSpectrum(runID string) (*Spectrum, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, spectrumFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSpectrum
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSpectrum(f)
}

var ErrNoSpectrum = errors.New("storage: run has no spectrum")

// CopyFile streams one stored table to w, for exports.
func (s *Store) CopyFile(runID string, spectrum bool, w io.Writer) error {
	name := dynamicsFile
	if spectrum {
		name = spectrumFile
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if errors.Is(err, os.ErrNotExist) && spectrum {
		return ErrNoSpectrum
	}
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
