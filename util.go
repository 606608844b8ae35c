package meansbands

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func quarterLabels(t []time.Time) []string {
	labels := make([]string, len(t))
	for i, d := range t {
		labels[i] = timedataset.QuarterLabel(d)
	}
	return labels
}

// lineData converts y to chart points. Non-finite values are left empty so
// the line breaks instead of dropping the date.
func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, len(y))
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(quarterLabels(t))
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineBands generates an echart line chart of the mean of a series with the
// lower and upper bound of each density band.
func LineBands(res *Result, series string) (*charts.Line, error) {
	means, err := res.Means(series)
	if err != nil {
		return nil, err
	}
	bands := res.BandTable[series]

	names := make([]string, 0, 1+2*len(bands))
	y := make([][]float64, 0, 1+2*len(bands))
	names = append(names, "Mean")
	y = append(y, means)
	// widest band first so the legend reads from the outside in
	for i := len(bands) - 1; i >= 0; i-- {
		names = append(names, bands[i].LowerLabel(), bands[i].UpperLabel())
		y = append(y, bands[i].Lower, bands[i].Upper)
	}

	title := fmt.Sprintf("%s %s %s", series, res.Class, res.Product)
	return LineTSeries(title, names, res.Dates, y), nil
}

// PlotBands uses the Apache Echarts library to generate an html file with one
// means and bands chart per series. All series are plotted when none are given.
func PlotBands(path string, res *Result, series ...string) error {
	if len(series) == 0 {
		series = res.Series()
	}

	page := components.NewPage()
	for _, name := range series {
		line, err := LineBands(res, name)
		if err != nil {
			return err
		}
		page.AddCharts(line)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(file)
}
