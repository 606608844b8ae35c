// Package hpfilter decomposes a series into trend and cycle with the
// Hodrick-Prescott filter.
package hpfilter

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// DefaultQuarterlyLambda is the conventional smoothing parameter for quarterly data.
const DefaultQuarterlyLambda = 1600.0

var (
	ErrNoData         = errors.New("no data to filter")
	ErrAllMissing     = errors.New("series has no non-missing values")
	ErrNegativeLambda = errors.New("smoothing parameter must be non-negative")
	ErrFactorize      = errors.New("unable to factorize hp filter system")
)

// bandwidth of the symmetric pentadiagonal system I + lambda*K'K
const bandwidth = 2

// secondDiff holds the coefficients of one row of the second difference operator K.
var secondDiff = [3]float64{1, -2, 1}

// Filter solves min sum((y-tau)^2) + lambda*sum((tau[t+1]-2tau[t]+tau[t-1])^2)
// for the trend tau and returns the trend and the cycle y-tau.
//
// Leading and trailing runs of NaN are dropped before solving and padded back
// as NaN. A NaN inside the series is not treated specially and turns the whole
// trend into NaN.
func Filter(y []float64, lambda float64) ([]float64, []float64, error) {
	if len(y) == 0 {
		return nil, nil, ErrNoData
	}
	if lambda < 0 || math.IsNaN(lambda) {
		return nil, nil, fmt.Errorf("lambda of %.3f, %w", lambda, ErrNegativeLambda)
	}

	start, end, err := bounds(y)
	if err != nil {
		return nil, nil, err
	}

	seg, err := solve(y[start:end], lambda)
	if err != nil {
		return nil, nil, err
	}

	trend := make([]float64, len(y))
	cycle := make([]float64, len(y))
	for i := range y {
		if i < start || i >= end {
			trend[i] = math.NaN()
			cycle[i] = math.NaN()
			continue
		}
		trend[i] = seg[i-start]
		cycle[i] = y[i] - trend[i]
	}
	return trend, cycle, nil
}

// FilterDraws filters every row of a draws matrix independently.
func FilterDraws(y mat.Matrix, lambda float64) (*mat.Dense, *mat.Dense, error) {
	if y == nil {
		return nil, nil, ErrNoData
	}
	r, c := y.Dims()
	if r == 0 || c == 0 {
		return nil, nil, ErrNoData
	}
	trend := mat.NewDense(r, c, nil)
	cycle := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, y)
		tau, cyc, err := Filter(row, lambda)
		if err != nil {
			return nil, nil, fmt.Errorf("draw %d, %w", i, err)
		}
		trend.SetRow(i, tau)
		cycle.SetRow(i, cyc)
	}
	return trend, cycle, nil
}

// bounds returns the half open range excluding leading and trailing NaN runs.
func bounds(y []float64) (int, int, error) {
	start := 0
	for start < len(y) && math.IsNaN(y[start]) {
		start++
	}
	if start == len(y) {
		return 0, 0, ErrAllMissing
	}
	end := len(y)
	for end > start && math.IsNaN(y[end-1]) {
		end--
	}
	return start, end, nil
}

func solve(y []float64, lambda float64) ([]float64, error) {
	n := len(y)
	if n <= bandwidth || lambda == 0 {
		// no second differences to penalize
		tau := make([]float64, n)
		copy(tau, y)
		return tau, nil
	}

	// band[i][d] accumulates entry (i, i+d) of I + lambda*K'K. Each row of K
	// touches three consecutive periods, so periods near the ends receive
	// fewer contributions.
	band := make([][bandwidth + 1]float64, n)
	for i := 0; i < n; i++ {
		band[i][0] = 1
	}
	for r := 0; r < n-bandwidth; r++ {
		for a := 0; a <= bandwidth; a++ {
			for b := a; b <= bandwidth; b++ {
				band[r+a][b-a] += lambda * secondDiff[a] * secondDiff[b]
			}
		}
	}

	a := mat.NewSymBandDense(n, bandwidth, nil)
	for i := 0; i < n; i++ {
		for d := 0; d <= bandwidth && i+d < n; d++ {
			a.SetSymBand(i, i+d, band[i][d])
		}
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(a); !ok {
		return nil, ErrFactorize
	}

	var tau mat.VecDense
	if err := chol.SolveVecTo(&tau, mat.NewVecDense(n, slices.Clone(y))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return tau.RawVector().Data, nil
}
