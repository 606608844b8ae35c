package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarterEnd(t *testing.T) {
	testData := map[string]struct {
		t        time.Time
		expected time.Time
	}{
		"first day of quarter": {
			t:        time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		"mid quarter with time of day": {
			t:        time.Date(2020, 2, 14, 13, 45, 0, 0, time.UTC),
			expected: time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		"already quarter end": {
			t:        time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC),
		},
		"september": {
			t:        time.Date(2021, 9, 30, 23, 0, 0, 0, time.UTC),
			expected: time.Date(2021, 9, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, QuarterEnd(td.t))
		})
	}
}

func TestAddQuarters(t *testing.T) {
	q := time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC), AddQuarters(q, 1))
	assert.Equal(t, time.Date(2019, 9, 30, 0, 0, 0, 0, time.UTC), AddQuarters(q, -1))
	assert.Equal(t, time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC), AddQuarters(q, -4))
	assert.Equal(t, 4, QuartersBetween(AddQuarters(q, -4), q))
}

func TestQuarterRange(t *testing.T) {
	res := QuarterRange(time.Date(2019, 11, 15, 0, 0, 0, 0, time.UTC), 3)
	expected := []time.Time{
		time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, expected, res)
	assert.Nil(t, QuarterRange(time.Now(), 0))
}

func TestParseQuarter(t *testing.T) {
	testData := map[string]struct {
		label    string
		expected time.Time
		err      error
	}{
		"valid": {
			label:    "2019-Q4",
			expected: time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		"lower case": {
			label:    "2020-q1",
			expected: time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		"no separator": {
			label: "2020Q1",
			err:   ErrInvalidQuarter,
		},
		"quarter out of range": {
			label: "2020-Q5",
			err:   ErrInvalidQuarter,
		},
		"bad year": {
			label: "abcd-Q1",
			err:   ErrInvalidQuarter,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			q, err := ParseQuarter(td.label)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, q)
			assert.Equal(t, q, QuarterEnd(q))
		})
	}
	assert.Equal(t, "2019-Q4", QuarterLabel(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)))
}
