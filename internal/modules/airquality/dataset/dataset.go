// Package dataset holds the in-memory PM2.5 snapshot and the date-range
// filter applied to it.
package dataset

import (
	"errors"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"airwatch-server/internal/modules/airquality/types"
)

// ErrNoData is returned by Summarize when no reading carries a value.
var ErrNoData = errors.New("no data")

// Dataset is an immutable collection of readings ordered by date.
type Dataset struct {
	readings []types.Reading
}

// New sorts a copy of readings by date. Readings on the same date keep their
// relative order.
func New(readings []types.Reading) *Dataset {
	rs := make([]types.Reading, len(readings))
	copy(rs, readings)
	for i := range rs {
		rs[i].Date = types.DateOnly(rs[i].Date)
	}
	slices.SortStableFunc(rs, func(a, b types.Reading) int {
		return a.Date.Compare(b.Date)
	})
	return &Dataset{readings: rs}
}

// Len returns the number of readings.
func (d *Dataset) Len() int {
	return len(d.readings)
}

// Readings returns a copy of the readings in date order.
func (d *Dataset) Readings() []types.Reading {
	out := make([]types.Reading, len(d.readings))
	copy(out, d.readings)
	return out
}

// Bounds returns the first and last reading dates.
func (d *Dataset) Bounds() (first, last time.Time, ok bool) {
	if len(d.readings) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.readings[0].Date, d.readings[len(d.readings)-1].Date, true
}

// FilterByDateRange keeps readings with start <= date <= end, comparing
// calendar dates. A reversed range yields an empty dataset.
func (d *Dataset) FilterByDateRange(start, end time.Time) *Dataset {
	start, end = types.DateOnly(start), types.DateOnly(end)
	if start.After(end) {
		return &Dataset{}
	}
	lo, _ := slices.BinarySearchFunc(d.readings, start, func(r types.Reading, t time.Time) int {
		return r.Date.Compare(t)
	})
	hi, found := slices.BinarySearchFunc(d.readings[lo:], end, func(r types.Reading, t time.Time) int {
		return r.Date.Compare(t)
	})
	hi += lo
	// BinarySearchFunc lands on the first match; walk past the rest of end's day.
	if found {
		for hi < len(d.readings) && d.readings[hi].Date.Equal(end) {
			hi++
		}
	}
	return &Dataset{readings: d.readings[lo:hi]}
}

// ForStation keeps the readings of one station.
func (d *Dataset) ForStation(s types.Station) *Dataset {
	var out []types.Reading
	for _, r := range d.readings {
		if r.Station == s {
			out = append(out, r)
		}
	}
	return &Dataset{readings: out}
}

// Values returns the present PM2.5 values in date order.
func (d *Dataset) Values() []float64 {
	out := make([]float64, 0, len(d.readings))
	for _, r := range d.readings {
		if v, ok := r.Value(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Summary describes the PM2.5 values of a dataset.
type Summary struct {
	Readings int     `json:"readings"`
	Valid    int     `json:"valid"`
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summarize computes mean, min and max over present values. Missing values
// are skipped; a dataset without any value returns ErrNoData.
func (d *Dataset) Summarize() (Summary, error) {
	vals := d.Values()
	if len(vals) == 0 {
		return Summary{Readings: len(d.readings)}, ErrNoData
	}
	slices.Sort(vals)
	return Summary{
		Readings: len(d.readings),
		Valid:    len(vals),
		Mean:     stat.Mean(vals, nil),
		Min:      floats.Min(vals),
		Max:      floats.Max(vals),
	}, nil
}
