package meansbands

import (
	"context"
	"testing"

	"github.com/aouyang1/go-meansbands/draws"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/aouyang1/go-meansbands/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRun(t *testing.T) {
	histDates := timedataset.QuarterRange(quarter("2019-Q1"), 4)
	fcastDates := timedataset.QuarterRange(quarter("2020-Q1"), 2)
	transforms := map[string]transform.Kind{
		"gdp":  transform.LogGrowthToPct,
		"rate": transform.Identity,
	}

	reader := draws.MapReader{
		draws.FileName("mode", "histobs"): testTensor(t, 1, 2, 4, 0, func(d, v, p, s int) float64 {
			return float64(p)
		}),
		draws.FileName("mode", "forecastobs"): testTensor(t, 3, 2, 2, 0, func(d, v, p, s int) float64 {
			return float64(d)
		}),
		draws.FileName("mode", "forecast4qobs"): testTensor(t, 3, 2, 2, 0, func(d, v, p, s int) float64 {
			return 1
		}),
	}

	job := Job{
		InputType: "mode",
		Class:     Observable,
		Products:  []Product{History, Forecast, Forecast4Q},
		Metadata: map[Product]*Metadata{
			History:    testMetadata(History, histDates, transforms),
			Forecast:   testMetadata(Forecast, fcastDates, transforms),
			Forecast4Q: testMetadata(Forecast4Q, fcastDates, transforms),
		},
		Data:      mat.NewDense(2, 4, []float64{1, 1, 1, 1, 0, 0, 0, 0}),
		Y0Indexes: map[Product]int{Forecast4Q: 3},
	}

	mb, err := New(nil)
	require.Nil(t, err)

	results, err := mb.Run(context.Background(), reader, job)
	require.Nil(t, err)
	require.Len(t, results, 3)

	hist, err := results[History].Means("rate")
	require.Nil(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, hist)

	fcast, err := results[Forecast].Means("rate")
	require.Nil(t, err)
	assert.Equal(t, []float64{1, 1}, fcast)

	fcast4q, err := results[Forecast4Q].Means("gdp")
	require.Nil(t, err)
	assert.InDelta(t, fcast4q[0], fcast4q[1], 1e-12)

	job.Products = append(job.Products, Trend)
	_, err = mb.Run(context.Background(), reader, job)
	assert.ErrorIs(t, err, ErrNoProductMetadata)

	job.Metadata[Trend] = testMetadata(Trend, fcastDates, transforms)
	_, err = mb.Run(context.Background(), reader, job)
	assert.ErrorIs(t, err, draws.ErrDrawsNotFound)
}
