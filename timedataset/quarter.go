package timedataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
)

var ErrInvalidQuarter = errors.New("invalid quarter label")

// QuarterEnd normalises t to midnight UTC on the last day of its quarter. All
// tables and metadata key their rows by this date.
func QuarterEnd(t time.Time) time.Time {
	t = t.UTC()
	lastMonth := time.Month((int(t.Month())-1)/3*3 + 3)
	return cal.DayStart(cal.MonthEnd(time.Date(t.Year(), lastMonth, 1, 0, 0, 0, 0, time.UTC)))
}

// AddQuarters shifts t by n quarters and returns the quarter end date.
func AddQuarters(t time.Time, n int) time.Time {
	t = t.UTC()
	firstMonth := time.Month((int(t.Month())-1)/3*3 + 1)
	start := cal.MonthStart(time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, time.UTC))
	return QuarterEnd(start.AddDate(0, 3*n, 0))
}

// QuarterRange returns n consecutive quarter end dates starting at the quarter of start.
func QuarterRange(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, AddQuarters(start, i))
	}
	return t
}

// QuartersBetween returns the number of quarters from a to b. Negative when b is before a.
func QuartersBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	qa := a.Year()*4 + (int(a.Month())-1)/3
	qb := b.Year()*4 + (int(b.Month())-1)/3
	return qb - qa
}

// QuarterLabel formats t as YYYY-Qn.
func QuarterLabel(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// ParseQuarter parses a YYYY-Qn label into its quarter end date.
func ParseQuarter(label string) (time.Time, error) {
	year, q, found := strings.Cut(strings.ToUpper(strings.TrimSpace(label)), "-Q")
	if !found {
		return time.Time{}, fmt.Errorf("%q, %w", label, ErrInvalidQuarter)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q, %w", label, ErrInvalidQuarter)
	}
	qn, err := strconv.Atoi(q)
	if err != nil || qn < 1 || qn > 4 {
		return time.Time{}, fmt.Errorf("%q, %w", label, ErrInvalidQuarter)
	}
	return QuarterEnd(time.Date(y, time.Month(qn*3), 1, 0, 0, 0, 0, time.UTC)), nil
}
