package meansbands

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aouyang1/go-meansbands/stats"
)

var (
	ErrSeriesNotFound = errors.New("series not present in result")
	ErrBandNotFound   = errors.New("band level not present in result")
	ErrDateMismatch   = errors.New("series length does not match the product dates")
)

// Result holds the mean and density bands of every reported series of one
// product and class. Every table shares the date index in Dates.
type Result struct {
	Product Product
	Class   Class

	Indices map[string]int
	Shocks  map[string]int
	Dates   []time.Time

	// MeanTable maps a series to its cross-draw mean per date.
	MeanTable map[string][]float64
	// BandTable maps a series to its density bands per date.
	BandTable map[string]stats.Bands
	// Failures maps a skipped variable to the reason it failed.
	Failures map[string]string
}

func newResult(md *Metadata, dates []time.Time) *Result {
	return &Result{
		Product:   md.Product,
		Class:     md.Class,
		Indices:   md.Indices,
		Shocks:    md.Shocks,
		Dates:     dates,
		MeanTable: make(map[string][]float64),
		BandTable: make(map[string]stats.Bands),
		Failures:  make(map[string]string),
	}
}

// SeriesName is the key of a series: the variable, or variable__shock in a
// shock decomposition.
func SeriesName(variable, shock string) string {
	if shock == "" {
		return variable
	}
	return variable + "__" + shock
}

// Series returns the sorted names of every computed series.
func (r *Result) Series() []string {
	names := make([]string, 0, len(r.MeanTable))
	for name := range r.MeanTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DateIndex maps each date of the result to its row.
func (r *Result) DateIndex() map[time.Time]int {
	return NewDateIndex(r.Dates)
}

// Means returns the mean path of a series.
func (r *Result) Means(series string) ([]float64, error) {
	means, exists := r.MeanTable[series]
	if !exists {
		return nil, fmt.Errorf("%s, %w", series, ErrSeriesNotFound)
	}
	return means, nil
}

// Band returns the density band of a series at the given level.
func (r *Result) Band(series string, level float64) (stats.Band, error) {
	bands, exists := r.BandTable[series]
	if !exists {
		return stats.Band{}, fmt.Errorf("%s, %w", series, ErrSeriesNotFound)
	}
	band, exists := bands.Level(level)
	if !exists {
		return stats.Band{}, fmt.Errorf("%s at %.3f, %w", series, level, ErrBandNotFound)
	}
	return band, nil
}

// Validate checks that every mean and band has one value per date and that
// every mean has bands.
func (r *Result) Validate() error {
	n := len(r.Dates)
	for name, means := range r.MeanTable {
		if len(means) != n {
			return fmt.Errorf("mean of %s has %d values for %d dates, %w", name, len(means), n, ErrDateMismatch)
		}
		bands, exists := r.BandTable[name]
		if !exists {
			return fmt.Errorf("bands of %s, %w", name, ErrSeriesNotFound)
		}
		for _, b := range bands {
			if len(b.Lower) != n || len(b.Upper) != n {
				return fmt.Errorf("%s band of %s, %w", b.LowerLabel(), name, ErrDateMismatch)
			}
		}
	}
	for name := range r.BandTable {
		if _, exists := r.MeanTable[name]; !exists {
			return fmt.Errorf("mean of %s, %w", name, ErrSeriesNotFound)
		}
	}
	return nil
}
