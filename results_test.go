package meansbands

import (
	"testing"

	"github.com/aouyang1/go-meansbands/stats"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *Result {
	dates := timedataset.QuarterRange(quarter("2020-Q1"), 2)
	res := newResult(&Metadata{Product: Forecast, Class: Observable, Indices: map[string]int{"gdp": 0}}, dates)
	res.MeanTable["gdp"] = []float64{1, 2}
	res.BandTable["gdp"] = stats.Bands{
		{Level: 0.5, Lower: []float64{0.5, 1.5}, Upper: []float64{1.5, 2.5}},
		{Level: 0.9, Lower: []float64{0, 1}, Upper: []float64{2, 3}},
	}
	return res
}

func TestResultAccessors(t *testing.T) {
	res := testResult()

	means, err := res.Means("gdp")
	require.Nil(t, err)
	assert.Equal(t, []float64{1, 2}, means)

	band, err := res.Band("gdp", 0.9)
	require.Nil(t, err)
	assert.Equal(t, []float64{0, 1}, band.Lower)

	_, err = res.Band("gdp", 0.7)
	assert.ErrorIs(t, err, ErrBandNotFound)

	_, err = res.Band("cons", 0.9)
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	_, err = res.Means("cons")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	idx := res.DateIndex()
	assert.Equal(t, 1, idx[quarter("2020-Q2")])
	assert.Equal(t, []string{"gdp"}, res.Series())
}

func TestResultValidate(t *testing.T) {
	testData := map[string]struct {
		modify func(res *Result)
		err    error
	}{
		"valid": {
			modify: func(res *Result) {},
		},
		"short mean": {
			modify: func(res *Result) {
				res.MeanTable["gdp"] = []float64{1}
			},
			err: ErrDateMismatch,
		},
		"short band": {
			modify: func(res *Result) {
				res.BandTable["gdp"][1].Upper = []float64{2}
			},
			err: ErrDateMismatch,
		},
		"mean without bands": {
			modify: func(res *Result) {
				res.MeanTable["cons"] = []float64{1, 2}
			},
			err: ErrSeriesNotFound,
		},
		"bands without mean": {
			modify: func(res *Result) {
				res.BandTable["cons"] = stats.Bands{}
			},
			err: ErrSeriesNotFound,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := testResult()
			td.modify(res)
			err := res.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestSeriesName(t *testing.T) {
	assert.Equal(t, "gdp", SeriesName("gdp", ""))
	assert.Equal(t, "gdp__tfp", SeriesName("gdp", "tfp"))
}
