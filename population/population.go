// Package population aligns population growth data to the dates of a
// reported product so per-capita transforms can adjust for it.
package population

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-meansbands/timedataset"
)

var (
	ErrMissingMnemonic      = errors.New("population mnemonic not present")
	ErrInsufficientForecast = errors.New("insufficient population forecast periods")
	ErrDateNotFound         = timedataset.ErrDateNotFound
	ErrNoDates              = errors.New("no dates to resolve")
	ErrUnknownMode          = errors.New("unknown population resolve mode")
)

// Mode selects how the history and forecast segments are combined.
type Mode int

const (
	// Forecast takes the first n forecast periods.
	Forecast Mode = iota
	// Combined takes history rows for the requested dates and fills the rest
	// from the forecast segment.
	Combined
	// History takes exactly the requested dates from history.
	History
)

func (m Mode) String() string {
	switch m {
	case Forecast:
		return "forecast"
	case Combined:
		return "combined"
	case History:
		return "history"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Resolver looks up a population growth mnemonic in a history and a forecast table.
type Resolver struct {
	History  *timedataset.Table
	Forecast *timedataset.Table
	Mnemonic string
}

// NewResolver returns a resolver. At least one table must carry the mnemonic.
func NewResolver(history, forecast *timedataset.Table, mnemonic string) (*Resolver, error) {
	if mnemonic == "" {
		return nil, fmt.Errorf("empty mnemonic, %w", ErrMissingMnemonic)
	}
	if !history.HasColumn(mnemonic) && !forecast.HasColumn(mnemonic) {
		return nil, fmt.Errorf("%s, %w", mnemonic, ErrMissingMnemonic)
	}
	return &Resolver{
		History:  history,
		Forecast: forecast,
		Mnemonic: mnemonic,
	}, nil
}

// Resolve returns one population growth value per requested date.
func (r *Resolver) Resolve(mode Mode, dates []time.Time) ([]float64, error) {
	if len(dates) == 0 {
		return nil, ErrNoDates
	}
	switch mode {
	case Forecast:
		return r.forecastHead(len(dates))
	case Combined:
		return r.combined(dates)
	case History:
		return r.history(dates)
	default:
		return nil, fmt.Errorf("%d, %w", int(mode), ErrUnknownMode)
	}
}

// ResolveWithLookback resolves the requested dates along with the k quarters
// preceding the first date. Preceding quarters are looked up by date in
// history first, then in the forecast, whatever the mode.
func (r *Resolver) ResolveWithLookback(mode Mode, dates []time.Time, k int) ([]float64, []float64, error) {
	current, err := r.Resolve(mode, dates)
	if err != nil {
		return nil, nil, err
	}
	if k <= 0 {
		return nil, current, nil
	}

	prior, err := r.combined(timedataset.TimeSlice(dates).Lookback(k))
	if err != nil {
		return nil, nil, fmt.Errorf("lookback of %d quarters, %w", k, err)
	}
	return prior, current, nil
}

func (r *Resolver) column(tb *timedataset.Table, segment string) ([]float64, error) {
	y, exists := tb.Column(r.Mnemonic)
	if !exists {
		return nil, fmt.Errorf("%s in %s, %w", r.Mnemonic, segment, ErrMissingMnemonic)
	}
	return y, nil
}

func (r *Resolver) forecastHead(n int) ([]float64, error) {
	y, err := r.column(r.Forecast, "forecast")
	if err != nil {
		return nil, err
	}
	if len(y) < n {
		return nil, fmt.Errorf("need %d periods, but got %d, %w", n, len(y), ErrInsufficientForecast)
	}
	return y[:n], nil
}

func (r *Resolver) history(dates []time.Time) ([]float64, error) {
	if !r.History.HasColumn(r.Mnemonic) {
		return nil, fmt.Errorf("%s in history, %w", r.Mnemonic, ErrMissingMnemonic)
	}
	return r.History.Lookup(r.Mnemonic, dates)
}

func (r *Resolver) combined(dates []time.Time) ([]float64, error) {
	hist, _ := r.History.Column(r.Mnemonic)
	fcast, _ := r.Forecast.Column(r.Mnemonic)

	out := make([]float64, 0, len(dates))
	for _, d := range dates {
		if idx, found := r.History.Index(d); found && hist != nil {
			out = append(out, hist[idx])
			continue
		}
		if r.Forecast == nil {
			return nil, fmt.Errorf("%s, %w", timedataset.QuarterLabel(d), ErrDateNotFound)
		}
		if fcast == nil {
			return nil, fmt.Errorf(
				"%s is past history and forecast has no %s, %w",
				timedataset.QuarterLabel(d), r.Mnemonic, ErrMissingMnemonic,
			)
		}
		idx, found := r.Forecast.Index(d)
		if !found {
			return nil, fmt.Errorf("%s, %w", timedataset.QuarterLabel(d), ErrDateNotFound)
		}
		out = append(out, fcast[idx])
	}
	return out, nil
}
