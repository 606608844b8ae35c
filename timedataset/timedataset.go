package timedataset

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrNoData             = errors.New("no data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrMissingColumn      = errors.New("column not present in table")
	ErrDateNotFound       = errors.New("date not present in table")
)

// Table is a quarterly, date-indexed set of named columns e.g. a population
// dataset with one column per mnemonic. Dates are stored as quarter end dates
// in strictly increasing order.
type Table struct {
	T    []time.Time
	cols map[string][]float64
}

// NewTable returns a Table given a time slice and columns of the same length.
// Inputs are copied.
func NewTable(t []time.Time, cols map[string][]float64) (*Table, error) {
	if len(t) == 0 {
		return nil, ErrNoData
	}

	tSeries := make([]time.Time, len(t))
	for i := 0; i < len(t); i++ {
		tSeries[i] = QuarterEnd(t[i])
		if i > 0 && !tSeries[i].After(tSeries[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	c := make(map[string][]float64, len(cols))
	for name, y := range cols {
		if len(y) != len(t) {
			return nil, fmt.Errorf(
				"time feature has length of %d, but column %s has a length of %d, %w",
				len(t), name, len(y), ErrDatasetLenMismatch,
			)
		}
		c[name] = slices.Clone(y)
	}

	return &Table{T: tSeries, cols: c}, nil
}

// NewUnivariateTable returns a Table with a single named column.
func NewUnivariateTable(t []time.Time, name string, y []float64) (*Table, error) {
	return NewTable(t, map[string][]float64{name: y})
}

func (tb *Table) Len() int {
	if tb == nil {
		return 0
	}
	return len(tb.T)
}

// Column returns a copy of the named column.
func (tb *Table) Column(name string) ([]float64, bool) {
	if tb == nil {
		return nil, false
	}
	y, exists := tb.cols[name]
	if !exists {
		return nil, false
	}
	return slices.Clone(y), true
}

// HasColumn reports whether the named column exists.
func (tb *Table) HasColumn(name string) bool {
	if tb == nil {
		return false
	}
	_, exists := tb.cols[name]
	return exists
}

// Index returns the row of the quarter containing t.
func (tb *Table) Index(t time.Time) (int, bool) {
	if tb == nil {
		return -1, false
	}
	q := QuarterEnd(t)
	idx := sort.Search(len(tb.T), func(i int) bool {
		return !tb.T[i].Before(q)
	})
	if idx < len(tb.T) && tb.T[idx].Equal(q) {
		return idx, true
	}
	return -1, false
}

// Lookup returns the values of the named column at each of the given dates.
// Every date must be present.
func (tb *Table) Lookup(name string, dates []time.Time) ([]float64, error) {
	y, exists := tb.cols[name]
	if !exists {
		return nil, fmt.Errorf("%s, %w", name, ErrMissingColumn)
	}
	out := make([]float64, 0, len(dates))
	for _, d := range dates {
		idx, found := tb.Index(d)
		if !found {
			return nil, fmt.Errorf("%s for %s, %w", QuarterLabel(d), name, ErrDateNotFound)
		}
		out = append(out, y[idx])
	}
	return out, nil
}

type tableJSON struct {
	Dates   []string             `json:"dates"`
	Columns map[string][]float64 `json:"columns"`
}

// MarshalJSON encodes dates as YYYY-Qn labels.
func (tb *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{
		Dates:   make([]string, 0, len(tb.T)),
		Columns: tb.cols,
	}
	for _, t := range tb.T {
		out.Dates = append(out.Dates, QuarterLabel(t))
	}
	return json.Marshal(out)
}

func (tb *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t := make([]time.Time, 0, len(in.Dates))
	for _, label := range in.Dates {
		q, err := ParseQuarter(label)
		if err != nil {
			return err
		}
		t = append(t, q)
	}
	res, err := NewTable(t, in.Columns)
	if err != nil {
		return err
	}
	*tb = *res
	return nil
}
