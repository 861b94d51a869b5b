package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/san-kum/spectrasim/internal/dynamo"
)

// ReadFloats reads a plain list of numbers separated by whitespace or newlines.
func ReadFloats(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &dynamo.ResourceError{Path: path, Wrapped: err}
	}
	defer f.Close()

	var values []float64
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, &dynamo.ResourceError{Path: path, Wrapped: fmt.Errorf("value %d: %w", len(values)+1, err)}
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, &dynamo.ResourceError{Path: path, Wrapped: err}
	}
	return values, nil
}

// WriteFloats writes one value per line in shortest round-trip form.
func WriteFloats(path string, values []float64) error {
	buf := make([]byte, 0, 24*len(values))
	for _, v := range values {
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return &dynamo.ResourceError{Path: path, Wrapped: err}
	}
	return nil
}
