// Package draws holds posterior draws of model output and the readers that
// load them from storage.
package draws

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidShape    = errors.New("invalid draws shape")
	ErrDataLenMismatch = errors.New("draws data length does not match shape")
	ErrVarOutOfRange   = errors.New("variable index out of range")
	ErrShockOutOfRange = errors.New("shock index out of range")
	ErrShockDimension  = errors.New("shock dimension mismatch")
)

// Tensor is a dense ndraws x nvars x nperiods [x nshocks] array stored in row
// major order. Trend draws carry a single period. NShocks is zero unless the
// draws are a shock decomposition.
type Tensor struct {
	NDraws   int
	NVars    int
	NPeriods int
	NShocks  int
	Data     []float64
}

// NewTensor validates the shape against the data and returns a tensor that
// takes ownership of data.
func NewTensor(ndraws, nvars, nperiods, nshocks int, data []float64) (*Tensor, error) {
	if ndraws <= 0 || nvars <= 0 || nperiods <= 0 || nshocks < 0 {
		return nil, fmt.Errorf(
			"%d draws, %d vars, %d periods, %d shocks, %w",
			ndraws, nvars, nperiods, nshocks, ErrInvalidShape,
		)
	}
	t := &Tensor{
		NDraws:   ndraws,
		NVars:    nvars,
		NPeriods: nperiods,
		NShocks:  nshocks,
	}
	if len(data) != t.size() {
		return nil, fmt.Errorf("expected %d values, but got %d, %w", t.size(), len(data), ErrDataLenMismatch)
	}
	t.Data = data
	return t, nil
}

func (t *Tensor) shocks() int {
	if t.NShocks == 0 {
		return 1
	}
	return t.NShocks
}

func (t *Tensor) size() int {
	return t.NDraws * t.NVars * t.NPeriods * t.shocks()
}

func (t *Tensor) index(d, v, p, s int) int {
	return ((d*t.NVars+v)*t.NPeriods+p)*t.shocks() + s
}

// IsShockDecomposition reports whether the tensor carries a shock dimension.
func (t *Tensor) IsShockDecomposition() bool {
	return t.NShocks > 0
}

// At returns a single value. s is ignored without a shock dimension.
func (t *Tensor) At(d, v, p, s int) float64 {
	return t.Data[t.index(d, v, p, s)]
}

// Var returns the ndraws x nperiods draws matrix of variable v.
func (t *Tensor) Var(v int) (*mat.Dense, error) {
	if t.IsShockDecomposition() {
		return nil, fmt.Errorf("tensor has %d shocks, %w", t.NShocks, ErrShockDimension)
	}
	return t.slice(v, 0)
}

// VarShock returns the ndraws x nperiods contribution of shock s to variable v.
func (t *Tensor) VarShock(v, s int) (*mat.Dense, error) {
	if !t.IsShockDecomposition() {
		return nil, fmt.Errorf("tensor has no shocks, %w", ErrShockDimension)
	}
	if s < 0 || s >= t.NShocks {
		return nil, fmt.Errorf("shock %d of %d, %w", s, t.NShocks, ErrShockOutOfRange)
	}
	return t.slice(v, s)
}

func (t *Tensor) slice(v, s int) (*mat.Dense, error) {
	if v < 0 || v >= t.NVars {
		return nil, fmt.Errorf("variable %d of %d, %w", v, t.NVars, ErrVarOutOfRange)
	}
	out := mat.NewDense(t.NDraws, t.NPeriods, nil)
	for d := 0; d < t.NDraws; d++ {
		for p := 0; p < t.NPeriods; p++ {
			out.Set(d, p, t.At(d, v, p, s))
		}
	}
	return out, nil
}

// tensorJSON is the stored form of a tensor. Missing values are null.
type tensorJSON struct {
	NDraws   int        `json:"ndraws"`
	NVars    int        `json:"nvars"`
	NPeriods int        `json:"nperiods"`
	NShocks  int        `json:"nshocks,omitempty"`
	Data     []*float64 `json:"data"`
}

func (t *Tensor) MarshalJSON() ([]byte, error) {
	out := tensorJSON{
		NDraws:   t.NDraws,
		NVars:    t.NVars,
		NPeriods: t.NPeriods,
		NShocks:  t.NShocks,
		Data:     make([]*float64, len(t.Data)),
	}
	for i, v := range t.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Data[i] = &v
	}
	return json.Marshal(out)
}

func (t *Tensor) UnmarshalJSON(data []byte) error {
	var in tensorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	vals := make([]float64, len(in.Data))
	for i, v := range in.Data {
		if v == nil {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = *v
	}
	parsed, err := NewTensor(in.NDraws, in.NVars, in.NPeriods, in.NShocks, vals)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}
