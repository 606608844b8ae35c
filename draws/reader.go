package draws

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

var ErrDrawsNotFound = errors.New("draws not found")

// Reader loads the draws of one output variable e.g. ("mode", "forecastobs").
type Reader interface {
	Read(inputType, outputVar string) (*Tensor, error)
}

// FileName returns the storage name of a set of draws.
func FileName(inputType, outputVar string) string {
	return fmt.Sprintf("%s_%s.json", inputType, outputVar)
}

// FileReader reads draws stored as JSON files under Dir.
type FileReader struct {
	Dir string
}

func (r FileReader) Read(inputType, outputVar string) (*Tensor, error) {
	path := filepath.Join(r.Dir, FileName(inputType, outputVar))
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s, %w", path, ErrDrawsNotFound)
		}
		return nil, fmt.Errorf("unable to read draws file %s, %w", path, err)
	}
	var t Tensor
	if err := json.Unmarshal(bytes, &t); err != nil {
		return nil, fmt.Errorf("unable to decode draws file %s, %w", path, err)
	}
	return &t, nil
}

// Write stores t in the layout FileReader reads.
func (r FileReader) Write(inputType, outputVar string, t *Tensor) error {
	bytes, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("unable to encode draws, %w", err)
	}
	path := filepath.Join(r.Dir, FileName(inputType, outputVar))
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return fmt.Errorf("unable to write draws file %s, %w", path, err)
	}
	return nil
}

// MapReader serves draws held in memory, keyed by FileName.
type MapReader map[string]*Tensor

func (m MapReader) Read(inputType, outputVar string) (*Tensor, error) {
	t, exists := m[FileName(inputType, outputVar)]
	if !exists {
		return nil, fmt.Errorf("%s, %w", FileName(inputType, outputVar), ErrDrawsNotFound)
	}
	return t, nil
}
