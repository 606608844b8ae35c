package population

import (
	"testing"
	"time"

	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mnemonic = "dlpop"

func quarter(label string) time.Time {
	t, err := timedataset.ParseQuarter(label)
	if err != nil {
		panic(err)
	}
	return t
}

// history covers 2019-Q1..2019-Q4, forecast covers 2020-Q1..2020-Q3
func setupResolver(t *testing.T) *Resolver {
	t.Helper()
	history, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2019-Q1"), 4),
		mnemonic,
		[]float64{0.1, 0.2, 0.3, 0.4},
	)
	require.Nil(t, err)

	forecast, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2020-Q1"), 3),
		mnemonic,
		[]float64{1.1, 1.2, 1.3},
	)
	require.Nil(t, err)

	r, err := NewResolver(history, forecast, mnemonic)
	require.Nil(t, err)
	return r
}

func TestNewResolver(t *testing.T) {
	history, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2019-Q1"), 2),
		"other",
		[]float64{1, 2},
	)
	require.Nil(t, err)

	_, err = NewResolver(history, nil, "")
	assert.ErrorIs(t, err, ErrMissingMnemonic)

	_, err = NewResolver(history, nil, mnemonic)
	assert.ErrorIs(t, err, ErrMissingMnemonic)

	_, err = NewResolver(history, nil, "other")
	assert.Nil(t, err)
}

func TestResolve(t *testing.T) {
	r := setupResolver(t)

	testData := map[string]struct {
		mode     Mode
		dates    []time.Time
		expected []float64
		err      error
	}{
		"forecast head": {
			mode:     Forecast,
			dates:    timedataset.QuarterRange(quarter("2020-Q1"), 2),
			expected: []float64{1.1, 1.2},
		},
		"forecast insufficient": {
			mode:  Forecast,
			dates: timedataset.QuarterRange(quarter("2020-Q1"), 4),
			err:   ErrInsufficientForecast,
		},
		"combined across segments": {
			mode:     Combined,
			dates:    timedataset.QuarterRange(quarter("2019-Q3"), 4),
			expected: []float64{0.3, 0.4, 1.1, 1.2},
		},
		"combined history only": {
			mode:     Combined,
			dates:    timedataset.QuarterRange(quarter("2019-Q2"), 2),
			expected: []float64{0.2, 0.3},
		},
		"combined past forecast": {
			mode:  Combined,
			dates: timedataset.QuarterRange(quarter("2020-Q2"), 3),
			err:   ErrDateNotFound,
		},
		"combined before history": {
			mode:  Combined,
			dates: timedataset.QuarterRange(quarter("2018-Q4"), 2),
			err:   ErrDateNotFound,
		},
		"history exact": {
			mode:     History,
			dates:    timedataset.QuarterRange(quarter("2019-Q2"), 3),
			expected: []float64{0.2, 0.3, 0.4},
		},
		"history no concatenation": {
			mode:  History,
			dates: timedataset.QuarterRange(quarter("2019-Q4"), 2),
			err:   ErrDateNotFound,
		},
		"no dates": {
			mode: History,
			err:  ErrNoDates,
		},
		"unknown mode": {
			mode:  Mode(9),
			dates: timedataset.QuarterRange(quarter("2019-Q2"), 1),
			err:   ErrUnknownMode,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := r.Resolve(td.mode, td.dates)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestResolveWithLookback(t *testing.T) {
	r := setupResolver(t)

	prior, current, err := r.ResolveWithLookback(Forecast, timedataset.QuarterRange(quarter("2020-Q1"), 2), 3)
	require.Nil(t, err)
	assert.Equal(t, []float64{0.2, 0.3, 0.4}, prior)
	assert.Equal(t, []float64{1.1, 1.2}, current)

	prior, current, err = r.ResolveWithLookback(Combined, timedataset.QuarterRange(quarter("2020-Q2"), 2), 3)
	require.Nil(t, err)
	assert.Equal(t, []float64{0.3, 0.4, 1.1}, prior)
	assert.Equal(t, []float64{1.2, 1.3}, current)

	prior, current, err = r.ResolveWithLookback(History, timedataset.QuarterRange(quarter("2019-Q3"), 2), 0)
	require.Nil(t, err)
	assert.Nil(t, prior)
	assert.Equal(t, []float64{0.3, 0.4}, current)

	_, _, err = r.ResolveWithLookback(History, timedataset.QuarterRange(quarter("2019-Q2"), 2), 3)
	assert.ErrorIs(t, err, ErrDateNotFound)

	_, _, err = r.ResolveWithLookback(Forecast, timedataset.QuarterRange(quarter("2020-Q1"), 1), 5)
	assert.ErrorIs(t, err, ErrDateNotFound)
}

func TestResolveWithLookbackOverlappingHistory(t *testing.T) {
	// history runs two quarters into the forecast
	history, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2019-Q1"), 6),
		mnemonic,
		[]float64{1, 2, 3, 4, 5, 6},
	)
	require.Nil(t, err)
	forecast, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2020-Q1"), 3),
		mnemonic,
		[]float64{11, 12, 13},
	)
	require.Nil(t, err)

	r, err := NewResolver(history, forecast, mnemonic)
	require.Nil(t, err)

	prior, current, err := r.ResolveWithLookback(Forecast, timedataset.QuarterRange(quarter("2020-Q1"), 2), 3)
	require.Nil(t, err)
	assert.Equal(t, []float64{2, 3, 4}, prior)
	assert.Equal(t, []float64{11, 12}, current)

	short, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2019-Q3"), 4),
		mnemonic,
		[]float64{3, 4, 5, 6},
	)
	require.Nil(t, err)
	r.History = short
	_, _, err = r.ResolveWithLookback(Forecast, timedataset.QuarterRange(quarter("2020-Q1"), 2), 3)
	assert.ErrorIs(t, err, ErrDateNotFound)
}

func TestResolveMissingSegment(t *testing.T) {
	history, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2019-Q1"), 2),
		mnemonic,
		[]float64{0.1, 0.2},
	)
	require.Nil(t, err)
	forecast, err := timedataset.NewUnivariateTable(
		timedataset.QuarterRange(quarter("2019-Q3"), 2),
		"other",
		[]float64{1, 2},
	)
	require.Nil(t, err)

	r, err := NewResolver(history, forecast, mnemonic)
	require.Nil(t, err)

	_, err = r.Resolve(Forecast, timedataset.QuarterRange(quarter("2019-Q3"), 1))
	assert.ErrorIs(t, err, ErrMissingMnemonic)

	_, err = r.Resolve(Combined, timedataset.QuarterRange(quarter("2019-Q2"), 2))
	assert.ErrorIs(t, err, ErrMissingMnemonic)

	r.Forecast = nil
	_, err = r.Resolve(Combined, timedataset.QuarterRange(quarter("2019-Q2"), 2))
	assert.ErrorIs(t, err, ErrDateNotFound)

	assert.Equal(t, "combined", Combined.String())
}

func TestSmoothed(t *testing.T) {
	r := setupResolver(t)

	// lambda of zero leaves the series untouched
	same, err := r.Smoothed(0)
	require.Nil(t, err)
	res, err := same.Resolve(Combined, timedataset.QuarterRange(quarter("2019-Q1"), 7))
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3, 0.4, 1.1, 1.2, 1.3}, res, 1e-12)

	smooth, err := r.Smoothed(1600)
	require.Nil(t, err)
	assert.Equal(t, 4, smooth.History.Len())
	assert.Equal(t, 3, smooth.Forecast.Len())

	res, err = smooth.Resolve(Combined, timedataset.QuarterRange(quarter("2019-Q1"), 7))
	require.Nil(t, err)
	// the trend is nearly linear and keeps the sum of the input
	var sum float64
	for _, v := range res {
		sum += v
	}
	assert.InDelta(t, 4.6, sum, 1e-9)
	assert.Less(t, res[3], 1.1)
	assert.Greater(t, res[4], 0.4)
}
