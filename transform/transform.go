// Package transform converts draws of log-levels and log-growth rates (scaled
// by 100) into percent changes. Every function takes and returns a draws
// matrix with one row per draw and one column per period.
package transform

import (
	"errors"
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-meansbands/mat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// GrowthLookback is the number of prior quarters a growth based 4q transform needs.
	GrowthLookback = 3
	// LevelLookback is the number of prior quarters a level based 4q transform needs.
	LevelLookback = 4
	// PopulationLookback is the number of prior quarters of population growth a
	// 4q per-capita transform needs.
	PopulationLookback = 3
)

var (
	ErrNoData            = errors.New("no draws to transform")
	ErrLookbackLen       = errors.New("prior period data has the wrong length")
	ErrPopulationLen     = errors.New("population growth has the wrong length")
	ErrMissingPopulation = errors.New("per-capita transform requires population growth")
	ErrMissingY0         = errors.New("level transform requires the last known level")
)

func dims(y mat.Matrix) (int, int, error) {
	if y == nil {
		return 0, 0, ErrNoData
	}
	r, c := y.Dims()
	if r == 0 || c == 0 {
		return 0, 0, ErrNoData
	}
	return r, c, nil
}

func checkPopulation(pop []float64, n int) error {
	if len(pop) == 0 {
		return ErrMissingPopulation
	}
	if len(pop) != n {
		return fmt.Errorf("expected %d periods, but got %d, %w", n, len(pop), ErrPopulationLen)
	}
	return nil
}

func checkLookback(prior []float64, k int) error {
	if len(prior) != k {
		return fmt.Errorf("expected %d prior periods, but got %d, %w", k, len(prior), ErrLookbackLen)
	}
	return nil
}

// annualize compounds one quarter of log growth v (a fraction) to an annual percent rate.
func annualize(v float64) float64 {
	return 100 * (math.Pow(math.Exp(v), 4) - 1)
}

func scale(y mat.Matrix, c float64) (*mat.Dense, error) {
	if _, _, err := dims(y); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Scale(c, y)
	return &out, nil
}

// Passthrough returns a copy of y.
func Passthrough(y mat.Matrix) (*mat.Dense, error) {
	return scale(y, 1)
}

// AnnualToQuarterly divides y by 4.
func AnnualToQuarterly(y mat.Matrix) (*mat.Dense, error) {
	return scale(y, 0.25)
}

// QuarterlyToAnnual multiplies y by 4.
func QuarterlyToAnnual(y mat.Matrix) (*mat.Dense, error) {
	return scale(y, 4)
}

// QuarterlyToAnnualPercent multiplies y by 400 for series stored as fractions.
func QuarterlyToAnnualPercent(y mat.Matrix) (*mat.Dense, error) {
	return scale(y, 400)
}

// LogGrowthAnnualized computes 100*((exp(y/100))^4 - 1).
func LogGrowthAnnualized(y mat.Matrix) (*mat.Dense, error) {
	r, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return annualize(v / 100)
	}, y)
	return out, nil
}

// LogGrowthAnnualizedPerCapita adds population growth pop to the per-capita log
// growth before compounding. pop has one value per period and is shared by
// every draw.
func LogGrowthAnnualizedPerCapita(y mat.Matrix, pop []float64) (*mat.Dense, error) {
	r, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	if err := checkPopulation(pop, c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return annualize(v/100 + pop[j])
	}, y)
	return out, nil
}

func logLevelAnnualized(y mat.Matrix, y0 float64, pop []float64) *mat.Dense {
	r, c := y.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		prev := y0
		for j := 0; j < c; j++ {
			curr := y.At(i, j)
			v := (curr - prev) / 100
			if pop != nil {
				v += pop[j]
			}
			out.Set(i, j, annualize(v))
			prev = curr
		}
	}
	return out
}

// LogLevelAnnualized differences the log-level path, seeding the first period
// with y0, and annualizes the quarterly change.
func LogLevelAnnualized(y mat.Matrix, y0 float64) (*mat.Dense, error) {
	if _, _, err := dims(y); err != nil {
		return nil, err
	}
	return logLevelAnnualized(y, y0, nil), nil
}

// LogLevelAnnualizedPerCapita is LogLevelAnnualized with population growth added
// to each quarterly change.
func LogLevelAnnualizedPerCapita(y mat.Matrix, y0 float64, pop []float64) (*mat.Dense, error) {
	_, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	if err := checkPopulation(pop, c); err != nil {
		return nil, err
	}
	return logLevelAnnualized(y, y0, pop), nil
}

// PrependData places the k prior values in front of every draw of y.
func PrependData(y mat.Matrix, prior []float64) (*mat.Dense, error) {
	if _, _, err := dims(y); err != nil {
		return nil, err
	}
	return mat_.PrependCols(y, prior)
}

// rollingPopulation returns the 4 quarter sums of population growth ending at
// each reported period.
func rollingPopulation(pop, popPrior []float64, n int) ([]float64, error) {
	if err := checkPopulation(pop, n); err != nil {
		return nil, err
	}
	if len(popPrior) == 0 {
		return nil, fmt.Errorf("prior quarters, %w", ErrMissingPopulation)
	}
	if len(popPrior) != PopulationLookback {
		return nil, fmt.Errorf("expected %d prior periods, but got %d, %w", PopulationLookback, len(popPrior), ErrPopulationLen)
	}
	pp := make([]float64, 0, PopulationLookback+n)
	pp = append(pp, popPrior...)
	pp = append(pp, pop...)

	sums := make([]float64, n)
	for t := 0; t < n; t++ {
		sums[t] = floats.Sum(pp[t : t+4])
	}
	return sums, nil
}

func logGrowth4Q(y mat.Matrix, prior, popSums []float64) (*mat.Dense, error) {
	r, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	if err := checkLookback(prior, GrowthLookback); err != nil {
		return nil, err
	}
	yy, err := PrependData(y, prior)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	row := make([]float64, c+GrowthLookback)
	for i := 0; i < r; i++ {
		mat.Row(row, i, yy)
		for t := 0; t < c; t++ {
			v := floats.Sum(row[t:t+4]) / 100
			if popSums != nil {
				v += popSums[t]
			}
			out.Set(i, t, 100*(math.Exp(v)-1))
		}
	}
	return out, nil
}

// LogGrowth4Q cumulates four quarters of log growth ending at each period into
// a four-quarter percent change. prior holds the 3 quarters preceding the
// first period.
func LogGrowth4Q(y mat.Matrix, prior []float64) (*mat.Dense, error) {
	return logGrowth4Q(y, prior, nil)
}

// LogGrowth4QPerCapita is LogGrowth4Q with four quarters of population growth
// added. popPrior holds the 3 quarters of population growth preceding pop.
func LogGrowth4QPerCapita(y mat.Matrix, prior, pop, popPrior []float64) (*mat.Dense, error) {
	_, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	popSums, err := rollingPopulation(pop, popPrior, c)
	if err != nil {
		return nil, err
	}
	return logGrowth4Q(y, prior, popSums)
}

func logLevel4Q(y mat.Matrix, prior, popSums []float64) (*mat.Dense, error) {
	r, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	if err := checkLookback(prior, LevelLookback); err != nil {
		return nil, err
	}
	yy, err := PrependData(y, prior)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for t := 0; t < c; t++ {
			v := (yy.At(i, t+LevelLookback) - yy.At(i, t)) / 100
			if popSums != nil {
				v += popSums[t]
			}
			out.Set(i, t, 100*(math.Exp(v)-1))
		}
	}
	return out, nil
}

// LogLevel4Q computes the four-quarter percent change of a log-level path.
// prior holds the 4 quarters preceding the first period.
func LogLevel4Q(y mat.Matrix, prior []float64) (*mat.Dense, error) {
	return logLevel4Q(y, prior, nil)
}

// LogLevel4QPerCapita is LogLevel4Q with four quarters of population growth added.
func LogLevel4QPerCapita(y mat.Matrix, prior, pop, popPrior []float64) (*mat.Dense, error) {
	_, c, err := dims(y)
	if err != nil {
		return nil, err
	}
	popSums, err := rollingPopulation(pop, popPrior, c)
	if err != nil {
		return nil, err
	}
	return logLevel4Q(y, prior, popSums)
}
