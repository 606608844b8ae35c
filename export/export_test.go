package export

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	meansbands "github.com/aouyang1/go-meansbands"
	"github.com/aouyang1/go-meansbands/stats"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testResult(t *testing.T) *meansbands.Result {
	t.Helper()
	start, err := timedataset.ParseQuarter("2020-Q1")
	require.Nil(t, err)
	return &meansbands.Result{
		Product: meansbands.Forecast,
		Class:   meansbands.Observable,
		Indices: map[string]int{"gdp": 0, "rate": 1},
		Dates:   timedataset.QuarterRange(start, 2),
		MeanTable: map[string][]float64{
			"gdp":  {1.5, math.NaN()},
			"rate": {0.25, 0.5},
		},
		BandTable: map[string]stats.Bands{
			"gdp": {
				{Level: 0.9, Lower: []float64{1, math.NaN()}, Upper: []float64{2, math.NaN()}},
			},
			"rate": {
				{Level: 0.5, Lower: []float64{0.2, 0.4}, Upper: []float64{0.3, 0.6}},
				{Level: 0.9, Lower: []float64{0.1, 0.3}, Upper: []float64{0.4, 0.7}},
			},
		},
		Failures: map[string]string{"cons": "missing population"},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, WriteJSON(&buf, testResult(t)))

	var doc Document
	require.Nil(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "forecast", doc.Product)
	assert.Equal(t, "observable", doc.Class)
	assert.Equal(t, []string{"2020-Q1", "2020-Q2"}, doc.Dates)

	gdp := doc.Means["gdp"]
	require.Len(t, gdp, 2)
	require.NotNil(t, gdp[0])
	assert.Equal(t, 1.5, *gdp[0])
	assert.Nil(t, gdp[1], "unavailable values are null")

	require.Len(t, doc.Bands["rate"], 2)
	assert.Equal(t, 0.9, doc.Bands["rate"][1].Level)
	assert.Equal(t, 0.7, *doc.Bands["rate"][1].Upper[1])
	assert.Equal(t, "missing population", doc.Failures["cons"])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecastobs.xlsx")
	require.Nil(t, WriteXLSXFile(path, testResult(t)))

	f, err := excelize.OpenFile(path)
	require.Nil(t, err)
	defer f.Close()

	assert.Equal(t, []string{MeansSheet, "gdp", "rate"}, f.GetSheetList())

	rows, err := f.GetRows(MeansSheet)
	require.Nil(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "gdp", "rate"}, rows[0])
	assert.Equal(t, []string{"2020-Q1", "1.5", "0.25"}, rows[1])
	assert.Equal(t, "2020-Q2", rows[2][0])
	assert.Equal(t, "", rows[2][1])

	rows, err = f.GetRows("rate")
	require.Nil(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "50.0% LB", "50.0% UB", "90.0% LB", "90.0% UB"}, rows[0])
	assert.Equal(t, []string{"2020-Q2", "0.4", "0.6", "0.3", "0.7"}, rows[2])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "gdp__tfp", SheetName("gdp__tfp"))
	assert.Equal(t, "means_bands", SheetName("means"))
	long := strings.Repeat("x", 40)
	assert.Len(t, SheetName(long), 31)
}

func TestSheetNamesDistinct(t *testing.T) {
	prefix := strings.Repeat("v", 29)
	series := []string{prefix + "__tfp", prefix + "__mon", "gdp", "Means"}

	sheets := SheetNames(series)
	require.Len(t, sheets, 4)
	assert.Equal(t, prefix+"__", sheets[0])
	assert.Equal(t, prefix+"_2", sheets[1])
	assert.Equal(t, "gdp", sheets[2])
	assert.Equal(t, "Means_bands", sheets[3])

	res := testResult(t)
	bands := res.BandTable["rate"]
	for _, name := range series[:2] {
		res.Indices[name] = len(res.Indices)
		res.MeanTable[name] = []float64{1, 2}
		res.BandTable[name] = bands
	}
	path := filepath.Join(t.TempDir(), "shockdecobs.xlsx")
	require.Nil(t, WriteXLSXFile(path, res))

	f, err := excelize.OpenFile(path)
	require.Nil(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 5)
}
