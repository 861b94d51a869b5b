package storage

import (
	"encoding/json"
	"errors"
	"io"
)

type ExportData struct {
	Run       RunMetadata `json:"run"`
	Seconds   []float64   `json:"time_s"`
	Modes     [][]float64 `json:"populations"`
	Energies  []float64   `json:"energy_ev,omitempty"`
	Intensity []float64   `json:"intensity,omitempty"`
}

// ExportJSON writes a stored run as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	dyn, err := s.LoadDynamics(runID)
	if err != nil {
		return err
	}

	data := ExportData{Run: *meta, Seconds: dyn.Seconds, Modes: dyn.Modes}
	spec, err := s.LoadSpectrum(runID)
	switch {
	case err == nil:
		data.Energies, data.Intensity = spec.Energies, spec.Intensity
	case !errors.Is(err, ErrNoSpectrum):
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
