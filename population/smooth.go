package population

import (
	"fmt"
	"slices"

	"github.com/aouyang1/go-meansbands/hpfilter"
	"github.com/aouyang1/go-meansbands/timedataset"
)

// Smoothed returns a resolver over the HP trend of the population growth
// series. History and forecast are filtered as one series so the trend is
// continuous across the two segments.
func (r *Resolver) Smoothed(lambda float64) (*Resolver, error) {
	hist, _ := r.History.Column(r.Mnemonic)
	fcast, _ := r.Forecast.Column(r.Mnemonic)

	y := slices.Concat(hist, fcast)
	trend, _, err := hpfilter.Filter(y, lambda)
	if err != nil {
		return nil, fmt.Errorf("unable to filter %s, %w", r.Mnemonic, err)
	}

	out := &Resolver{Mnemonic: r.Mnemonic}
	if len(hist) > 0 {
		out.History, err = timedataset.NewUnivariateTable(r.History.T, r.Mnemonic, trend[:len(hist)])
		if err != nil {
			return nil, fmt.Errorf("unable to build smoothed history, %w", err)
		}
	}
	if len(fcast) > 0 {
		out.Forecast, err = timedataset.NewUnivariateTable(r.Forecast.T, r.Mnemonic, trend[len(hist):])
		if err != nil {
			return nil, fmt.Errorf("unable to build smoothed forecast, %w", err)
		}
	}
	return out, nil
}
