// Package mat holds helpers for draws matrices. A draws matrix is always a
// *mat.Dense with one row per draw and one column per period; a single path
// is the 1 x nperiods case.
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch = errors.New("column size mismatch")
	ErrEmptyRow    = errors.New("empty row")
	ErrNilMatrix   = errors.New("nil matrix")
	ErrNonPositive = errors.New("dimension must be positive")
)

// NewDenseFromArray builds a dense matrix from a slice of rows. All rows must
// have the same, non-zero length.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, fmt.Errorf("no rows, %w", ErrEmptyRow)
	}

	n := len(x[0])
	if n == 0 {
		return nil, fmt.Errorf("at row 0, %w", ErrEmptyRow)
	}
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// BroadcastCols takes a single column matrix and repeats it across n columns.
func BroadcastCols(x mat.Matrix, n int) (*mat.Dense, error) {
	if x == nil {
		return nil, ErrNilMatrix
	}
	if n <= 0 {
		return nil, ErrNonPositive
	}
	r, c := x.Dims()
	if c != 1 {
		return nil, fmt.Errorf("expected 1 column, but got %d, %w", c, ErrColMismatch)
	}
	out := mat.NewDense(r, n, nil)
	for i := 0; i < r; i++ {
		v := x.At(i, 0)
		for j := 0; j < n; j++ {
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// PrependCols returns a new matrix with prior placed in front of every row of y.
func PrependCols(y mat.Matrix, prior []float64) (*mat.Dense, error) {
	if y == nil {
		return nil, ErrNilMatrix
	}
	r, c := y.Dims()
	k := len(prior)
	out := mat.NewDense(r, k+c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			out.Set(i, j, prior[j])
		}
		for j := 0; j < c; j++ {
			out.Set(i, k+j, y.At(i, j))
		}
	}
	return out, nil
}
