// Package export writes means and bands results to files.
package export

import (
	"fmt"
	"io"
	"math"
	"os"

	meansbands "github.com/aouyang1/go-meansbands"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/goccy/go-json"
)

// Band is the stored form of one density band. Unavailable values are null.
type Band struct {
	Level float64    `json:"level"`
	Lower []*float64 `json:"lower"`
	Upper []*float64 `json:"upper"`
}

// Document is the stored form of a result.
type Document struct {
	Product  string                `json:"product"`
	Class    string                `json:"class"`
	Indices  map[string]int        `json:"indices"`
	Shocks   map[string]int        `json:"shocks,omitempty"`
	Dates    []string              `json:"dates"`
	Means    map[string][]*float64 `json:"means"`
	Bands    map[string][]Band     `json:"bands"`
	Failures map[string]string     `json:"failures,omitempty"`
}

func nullable(y []float64) []*float64 {
	out := make([]*float64, len(y))
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &v
	}
	return out
}

// NewDocument converts a result into its stored form.
func NewDocument(res *meansbands.Result) *Document {
	doc := &Document{
		Product:  res.Product.String(),
		Class:    res.Class.String(),
		Indices:  res.Indices,
		Shocks:   res.Shocks,
		Dates:    make([]string, len(res.Dates)),
		Means:    make(map[string][]*float64, len(res.MeanTable)),
		Bands:    make(map[string][]Band, len(res.BandTable)),
		Failures: res.Failures,
	}
	for i, d := range res.Dates {
		doc.Dates[i] = timedataset.QuarterLabel(d)
	}
	for name, means := range res.MeanTable {
		doc.Means[name] = nullable(means)
	}
	for name, bands := range res.BandTable {
		out := make([]Band, len(bands))
		for i, b := range bands {
			out[i] = Band{
				Level: b.Level,
				Lower: nullable(b.Lower),
				Upper: nullable(b.Upper),
			}
		}
		doc.Bands[name] = out
	}
	return doc
}

// WriteJSON encodes the result as indented JSON.
func WriteJSON(w io.Writer, res *meansbands.Result) error {
	bytes, err := json.MarshalIndent(NewDocument(res), "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode result, %w", err)
	}
	if _, err := w.Write(bytes); err != nil {
		return fmt.Errorf("unable to write result, %w", err)
	}
	return nil
}

// WriteJSONFile writes the result as JSON to path.
func WriteJSONFile(path string, res *meansbands.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, res)
	})
}

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
