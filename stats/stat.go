package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoDraws          = errors.New("no draws to summarize")
	ErrNoBandLevels     = errors.New("no density band levels")
	ErrInvalidBandLevel = errors.New("density band level must be within (0, 1)")
)

// DefaultBandLevels are the probability masses of the reported density bands.
var DefaultBandLevels = []float64{0.5, 0.6, 0.7, 0.8, 0.9}

// Band holds the lower and upper bounds of one density band per period.
type Band struct {
	Level float64   `json:"level"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// LowerLabel names the lower bound column e.g. "90.0% LB".
func (b Band) LowerLabel() string {
	return fmt.Sprintf("%.1f%% LB", 100*b.Level)
}

// UpperLabel names the upper bound column e.g. "90.0% UB".
func (b Band) UpperLabel() string {
	return fmt.Sprintf("%.1f%% UB", 100*b.Level)
}

// Bands is a set of density bands sorted by increasing level.
type Bands []Band

// Level returns the band with the requested probability mass.
func (b Bands) Level(level float64) (Band, bool) {
	for _, band := range b {
		if math.Abs(band.Level-level) < 1e-12 {
			return band, true
		}
	}
	return Band{}, false
}

// BandCalculator reduces a draws matrix (draws x periods) to density bands per period.
type BandCalculator interface {
	Bands(draws mat.Matrix, levels []float64) (Bands, error)
}

// QuantileBands computes density bands per period from the cross-draw
// distribution. The default takes the equal tailed interval between the
// (1-p)/2 and (1+p)/2 quantiles. With Minimize set, the narrowest interval
// holding a share p of the draws is used instead.
type QuantileBands struct {
	Minimize bool
}

// ValidateLevels checks that there is at least one level and each is within (0, 1).
func ValidateLevels(levels []float64) error {
	if len(levels) == 0 {
		return ErrNoBandLevels
	}
	for _, p := range levels {
		if !(p > 0 && p < 1) {
			return fmt.Errorf("level of %.3f, %w", p, ErrInvalidBandLevel)
		}
	}
	return nil
}

func (q QuantileBands) Bands(draws mat.Matrix, levels []float64) (Bands, error) {
	if draws == nil {
		return nil, ErrNoDraws
	}
	r, c := draws.Dims()
	if r == 0 || c == 0 {
		return nil, ErrNoDraws
	}
	if err := ValidateLevels(levels); err != nil {
		return nil, err
	}

	sorted := slices.Clone(levels)
	sort.Float64s(sorted)
	sorted = slices.Compact(sorted)

	bands := make(Bands, len(sorted))
	for i, p := range sorted {
		bands[i] = Band{
			Level: p,
			Lower: make([]float64, c),
			Upper: make([]float64, c),
		}
	}

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, draws)
		finite := allFinite(col)
		if finite {
			sort.Float64s(col)
		}
		for i, p := range sorted {
			if !finite {
				bands[i].Lower[j] = math.NaN()
				bands[i].Upper[j] = math.NaN()
				continue
			}
			var lo, hi float64
			if q.Minimize {
				lo, hi = narrowest(col, p)
			} else {
				lo = stat.Quantile((1-p)/2, stat.LinInterp, col, nil)
				hi = stat.Quantile((1+p)/2, stat.LinInterp, col, nil)
			}
			bands[i].Lower[j] = lo
			bands[i].Upper[j] = hi
		}
	}
	return bands, nil
}

// narrowest returns the shortest interval of sorted draws covering a share p.
func narrowest(sorted []float64, p float64) (float64, float64) {
	n := len(sorted)
	width := int(math.Floor(p * float64(n)))
	if width >= n {
		width = n - 1
	}
	lo, hi := sorted[0], sorted[width]
	for i := 1; i+width < n; i++ {
		if sorted[i+width]-sorted[i] < hi-lo {
			lo, hi = sorted[i], sorted[i+width]
		}
	}
	return lo, hi
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ColMeans returns the cross-draw mean of every period. Non-finite draws make
// the mean of that period non-finite.
func ColMeans(draws mat.Matrix) ([]float64, error) {
	if draws == nil {
		return nil, ErrNoDraws
	}
	r, c := draws.Dims()
	if r == 0 || c == 0 {
		return nil, ErrNoDraws
	}
	means := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, draws)
		means[j] = stat.Mean(col, nil)
	}
	return means, nil
}
