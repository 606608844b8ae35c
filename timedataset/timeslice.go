package timedataset

import (
	"errors"
	"fmt"
	"time"
)

var ErrNonConsecutive = errors.New("dates are not consecutive quarters")

// TimeSlice is an ordered run of quarter end dates.
type TimeSlice []time.Time

// Consecutive checks that every date is exactly one quarter after the previous.
func (t TimeSlice) Consecutive() error {
	for i := 1; i < len(t); i++ {
		if QuartersBetween(t[i-1], t[i]) != 1 {
			return fmt.Errorf("%s followed by %s, %w", QuarterLabel(t[i-1]), QuarterLabel(t[i]), ErrNonConsecutive)
		}
	}
	return nil
}

// Lookback returns the k quarter end dates immediately preceding the first date.
func (t TimeSlice) Lookback(k int) []time.Time {
	if len(t) == 0 || k <= 0 {
		return nil
	}
	return QuarterRange(AddQuarters(t[0], -k), k)
}
