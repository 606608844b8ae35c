package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	meansbands "github.com/aouyang1/go-meansbands"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/xuri/excelize/v2"
)

const (
	MeansSheet = "means"

	// excel limits sheet names to 31 characters
	maxSheetName = 31
)

func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, start, &values)
}

// SheetName returns the band sheet name of a series.
func SheetName(series string) string {
	if strings.EqualFold(series, MeansSheet) {
		series += "_bands"
	}
	if len(series) > maxSheetName {
		return series[:maxSheetName]
	}
	return series
}

// SheetNames returns one distinct band sheet name per series. Names that
// collide once truncated get a numeric suffix.
func SheetNames(series []string) []string {
	used := map[string]struct{}{strings.ToLower(MeansSheet): {}}
	out := make([]string, 0, len(series))
	for _, name := range series {
		sheet := SheetName(name)
		for i := 2; ; i++ {
			if _, exists := used[strings.ToLower(sheet)]; !exists {
				break
			}
			suffix := fmt.Sprintf("_%d", i)
			base := SheetName(name)
			if len(base)+len(suffix) > maxSheetName {
				base = base[:maxSheetName-len(suffix)]
			}
			sheet = base + suffix
		}
		used[strings.ToLower(sheet)] = struct{}{}
		out = append(out, sheet)
	}
	return out
}

// WriteXLSX writes the means of every series to one sheet, with a date column
// and one column per series, followed by one sheet of bands per series.
// Unavailable values are left empty.
func WriteXLSX(w io.Writer, res *meansbands.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MeansSheet); err != nil {
		return fmt.Errorf("unable to name means sheet, %w", err)
	}

	series := res.Series()
	header := make([]any, 0, len(series)+1)
	header = append(header, "date")
	for _, name := range series {
		header = append(header, name)
	}
	if err := setRow(f, MeansSheet, 1, header); err != nil {
		return err
	}
	for i, d := range res.Dates {
		row := make([]any, 0, len(series)+1)
		row = append(row, timedataset.QuarterLabel(d))
		for _, name := range series {
			row = append(row, cell(res.MeanTable[name][i]))
		}
		if err := setRow(f, MeansSheet, i+2, row); err != nil {
			return err
		}
	}

	sheets := SheetNames(series)
	for i, name := range series {
		sheet := sheets[i]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("unable to create sheet for %s, %w", name, err)
		}
		bands := res.BandTable[name]

		header := make([]any, 0, 2*len(bands)+1)
		header = append(header, "date")
		for _, b := range bands {
			header = append(header, b.LowerLabel(), b.UpperLabel())
		}
		if err := setRow(f, sheet, 1, header); err != nil {
			return err
		}
		for i, d := range res.Dates {
			row := make([]any, 0, 2*len(bands)+1)
			row = append(row, timedataset.QuarterLabel(d))
			for _, b := range bands {
				row = append(row, cell(b.Lower[i]), cell(b.Upper[i]))
			}
			if err := setRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("unable to write workbook, %w", err)
	}
	return nil
}

// WriteXLSXFile writes the result as a workbook to path.
func WriteXLSXFile(path string, res *meansbands.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteXLSX(w, res)
	})
}
