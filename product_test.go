package meansbands

import (
	"testing"

	"github.com/aouyang1/go-meansbands/population"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputVar(t *testing.T) {
	testData := map[string]struct {
		name    string
		product Product
		class   Class
		err     error
	}{
		"history obs":      {name: "histobs", product: History, class: Observable},
		"history 4q pseudo": {name: "hist4qpseudo", product: History4Q, class: PseudoObservable},
		"forecast":         {name: "forecastobs", product: Forecast, class: Observable},
		"forecast 4q":      {name: "Forecast4QObs", product: Forecast4Q, class: Observable},
		"trend":            {name: "trendpseudo", product: Trend, class: PseudoObservable},
		"dettrend":         {name: "dettrendobs", product: DetTrend, class: Observable},
		"shockdec":         {name: "shockdecobs", product: ShockDec, class: Observable},
		"unknown product":  {name: "irfobs", err: ErrUnknownOutputVar},
		"unknown class":    {name: "forecaststate", err: ErrUnknownOutputVar},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			product, class, err := ParseOutputVar(td.name)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.product, product)
			assert.Equal(t, td.class, class)
		})
	}
}

func TestOutputVarRoundTrip(t *testing.T) {
	for p := range productNames {
		for c := range classNames {
			product, class, err := ParseOutputVar(OutputVar(p, c))
			require.Nil(t, err)
			assert.Equal(t, p, product)
			assert.Equal(t, c, class)
		}
	}
}

func TestProductText(t *testing.T) {
	type payload struct {
		Product Product `json:"product"`
		Class   Class   `json:"class"`
	}

	bytes, err := json.Marshal(payload{Product: Forecast4Q, Class: PseudoObservable})
	require.Nil(t, err)
	assert.Equal(t, `{"product":"forecast4q","class":"pseudo-observable"}`, string(bytes))

	var p payload
	require.Nil(t, json.Unmarshal([]byte(`{"product":"hist","class":"obs"}`), &p))
	assert.Equal(t, History, p.Product)
	assert.Equal(t, Observable, p.Class)

	assert.NotNil(t, json.Unmarshal([]byte(`{"product":"irf","class":"obs"}`), &p))

	_, err = Product(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownProduct)
	_, err = ParseClass("state")
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestPopulationMode(t *testing.T) {
	testData := map[Product]population.Mode{
		History:    population.History,
		History4Q:  population.History,
		Forecast:   population.Forecast,
		Forecast4Q: population.Forecast,
		Trend:      population.Combined,
		DetTrend:   population.Combined,
		ShockDec:   population.Combined,
	}
	for product, mode := range testData {
		t.Run(product.String(), func(t *testing.T) {
			assert.Equal(t, mode, product.PopulationMode())
		})
	}
	assert.True(t, Forecast4Q.Is4Q())
	assert.False(t, Forecast.Is4Q())
}
