package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/spectrasim/internal/dynamo"
)

// Dynamics is a population table as exported: display time in seconds and one
// occupation series per mode, exciton first.
type Dynamics struct {
	Seconds []float64
	Modes   [][]float64
}

type Spectrum struct {
	Energies  []float64
	Intensity []float64
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newTSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

func newTSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	return cr
}

// WriteDynamics writes one row per trajectory sample with the time converted
// to seconds and the real diagonal of the state.
func WriteDynamics(w io.Writer, traj *dynamo.Trajectory) error {
	cw := newTSVWriter(w)

	header := []string{"Time (s)", "Number of Excitons"}
	for i := 1; i < traj.Modes; i++ {
		header = append(header, fmt.Sprintf("Number of Photons in Mode %d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, traj.Modes+1)
	for k, s := range traj.States {
		row[0] = formatFloat(dynamo.DisplaySeconds(traj.Grid.Times[k]))
		for i, v := range s.Populations() {
			row[i+1] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadDynamics(r io.Reader) (*Dynamics, error) {
	rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	d := &Dynamics{}
	if len(rows) == 0 {
		return d, nil
	}
	d.Modes = make([][]float64, len(rows[0])-1)
	for _, row := range rows {
		if len(row) != len(d.Modes)+1 {
			return nil, fmt.Errorf("row has %d columns, want %d", len(row), len(d.Modes)+1)
		}
		d.Seconds = append(d.Seconds, row[0])
		for i := range d.Modes {
			d.Modes[i] = append(d.Modes[i], row[i+1])
		}
	}
	return d, nil
}

// WriteSpectrum writes energy and the real part of the spectrum per sample.
func WriteSpectrum(w io.Writer, spec *dynamo.Spectrum) error {
	cw := newTSVWriter(w)
	if err := cw.Write([]string{"Energy (eV)", "Intensity"}); err != nil {
		return err
	}
	for k, e := range spec.Grid.Energies {
		if err := cw.Write([]string{formatFloat(e), formatFloat(real(spec.Values[k]))}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadSpectrum(r io.Reader) (*Spectrum, error) {
	rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	s := &Spectrum{}
	for _, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("row has %d columns, want 2", len(row))
		}
		s.Energies = append(s.Energies, row[0])
		s.Intensity = append(s.Intensity, row[1])
	}
	return s, nil
}

// readTable parses every row after the header as floats.
func readTable(r io.Reader) ([][]float64, error) {
	records, err := newTSVReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", i+2, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
