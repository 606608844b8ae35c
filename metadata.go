package meansbands

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/aouyang1/go-meansbands/transform"
	"github.com/goccy/go-json"
)

var (
	ErrInconsistentDates = errors.New("date index does not cover 0..n-1 in consecutive quarter order")
	ErrUnknownVariable   = errors.New("variable has no index")
	ErrNoTransform       = errors.New("variable has no transform assignment")
	ErrNoShocks          = errors.New("shock decomposition has no shocks")
	ErrNoVariables       = errors.New("no variables to report")
)

// Metadata describes the draws of one product and class: where each variable
// sits in the draws, which transform reports it and the dates of each period.
type Metadata struct {
	Product Product
	Class   Class

	// Variables lists the reported variables. Empty reports every indexed variable.
	Variables  []string
	Indices    map[string]int
	Transforms map[string]transform.Kind
	Dates      map[time.Time]int
	Shocks     map[string]int
}

// Reported returns the variables to report in a stable order.
func (m *Metadata) Reported() []string {
	if len(m.Variables) > 0 {
		return m.Variables
	}
	names := make([]string, 0, len(m.Indices))
	for name := range m.Indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OrderedDates returns the dates sorted by their index.
func (m *Metadata) OrderedDates() ([]time.Time, error) {
	if len(m.Dates) == 0 {
		return nil, fmt.Errorf("no dates, %w", ErrInconsistentDates)
	}
	dates := make([]time.Time, len(m.Dates))
	filled := make([]bool, len(m.Dates))
	for d, idx := range m.Dates {
		if idx < 0 || idx >= len(dates) || filled[idx] {
			return nil, fmt.Errorf("index %d of %s, %w", idx, timedataset.QuarterLabel(d), ErrInconsistentDates)
		}
		dates[idx] = d
		filled[idx] = true
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf(
				"%s at %d is not after %s, %w",
				timedataset.QuarterLabel(dates[i]), i, timedataset.QuarterLabel(dates[i-1]), ErrInconsistentDates,
			)
		}
	}
	if err := timedataset.TimeSlice(dates).Consecutive(); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInconsistentDates, err)
	}
	return dates, nil
}

// ShockNames returns the shock labels in index order.
func (m *Metadata) ShockNames() []string {
	names := make([]string, 0, len(m.Shocks))
	for name := range m.Shocks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return m.Shocks[names[i]] < m.Shocks[names[j]]
	})
	return names
}

// Validate checks the date index and that every reported variable has an
// index and a transform.
func (m *Metadata) Validate() error {
	if _, err := m.OrderedDates(); err != nil {
		return err
	}
	reported := m.Reported()
	if len(reported) == 0 {
		return ErrNoVariables
	}
	for _, name := range reported {
		if _, exists := m.Indices[name]; !exists {
			return fmt.Errorf("%s, %w", name, ErrUnknownVariable)
		}
		if _, exists := m.Transforms[name]; !exists {
			return fmt.Errorf("%s, %w", name, ErrNoTransform)
		}
	}
	if m.Product == ShockDec && len(m.Shocks) == 0 {
		return ErrNoShocks
	}
	return nil
}

type metadataJSON struct {
	Product    Product                   `json:"product"`
	Class      Class                     `json:"class"`
	Variables  []string                  `json:"variables,omitempty"`
	Indices    map[string]int            `json:"indices"`
	Transforms map[string]transform.Kind `json:"transforms"`
	Dates      []string                  `json:"dates"`
	Shocks     map[string]int            `json:"shocks,omitempty"`
}

// MarshalJSON stores dates as an ordered list of YYYY-Qn labels.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	dates, err := m.OrderedDates()
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = timedataset.QuarterLabel(d)
	}
	return json.Marshal(metadataJSON{
		Product:    m.Product,
		Class:      m.Class,
		Variables:  m.Variables,
		Indices:    m.Indices,
		Transforms: m.Transforms,
		Dates:      labels,
		Shocks:     m.Shocks,
	})
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var in metadataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	dates := make(map[time.Time]int, len(in.Dates))
	for i, label := range in.Dates {
		d, err := timedataset.ParseQuarter(label)
		if err != nil {
			return err
		}
		dates[d] = i
	}
	*m = Metadata{
		Product:    in.Product,
		Class:      in.Class,
		Variables:  in.Variables,
		Indices:    in.Indices,
		Transforms: in.Transforms,
		Dates:      dates,
		Shocks:     in.Shocks,
	}
	return nil
}

// NewDateIndex maps each date to its position.
func NewDateIndex(dates []time.Time) map[time.Time]int {
	idx := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		idx[timedataset.QuarterEnd(d)] = i
	}
	return idx
}
