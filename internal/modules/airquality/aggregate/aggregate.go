// Package aggregate groups readings by a key and averages their PM2.5 values.
package aggregate

import (
	"cmp"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"airwatch-server/internal/modules/airquality/category"
	"airwatch-server/internal/modules/airquality/types"
)

// Grouping describes how readings are keyed and how keys are ordered.
type Grouping[K comparable] struct {
	Name    string
	Key     func(types.Reading) K
	Compare func(a, b K) int
}

// StationMonth keys a station's readings within one calendar month
// (across all years).
type StationMonth struct {
	Station types.Station `json:"station"`
	Month   time.Month    `json:"month"`
}

var (
	ByStation = Grouping[types.Station]{
		Name:    "station",
		Key:     func(r types.Reading) types.Station { return r.Station },
		Compare: func(a, b types.Station) int { return a.Compare(b) },
	}
	ByMonth = Grouping[time.Month]{
		Name:    "month",
		Key:     func(r types.Reading) time.Month { return r.Date.Month() },
		Compare: cmp.Compare[time.Month],
	}
	ByYear = Grouping[int]{
		Name:    "year",
		Key:     func(r types.Reading) int { return r.Date.Year() },
		Compare: cmp.Compare[int],
	}
	ByStationMonth = Grouping[StationMonth]{
		Name: "station_month",
		Key: func(r types.Reading) StationMonth {
			return StationMonth{Station: r.Station, Month: r.Date.Month()}
		},
		Compare: func(a, b StationMonth) int {
			if c := a.Station.Compare(b.Station); c != 0 {
				return c
			}
			return cmp.Compare(a.Month, b.Month)
		},
	}
)

// Row is the mean PM2.5 of one group. Category and Highlighted are filled in
// by later stages and are zero straight out of MeanBy.
type Row[K comparable] struct {
	Key         K                 `json:"key"`
	Mean        float64           `json:"mean"`
	Count       int               `json:"count"`
	Category    category.Category `json:"category,omitempty"`
	Highlighted bool              `json:"highlighted"`
}

// MeanBy averages present PM2.5 values per group. Missing values count in
// neither sum nor size, so a group made only of missing values produces no
// row. Rows are ordered by key.
func MeanBy[K comparable](readings []types.Reading, g Grouping[K]) []Row[K] {
	groups := make(map[K][]float64)
	for _, r := range readings {
		v, ok := r.Value()
		if !ok {
			continue
		}
		k := g.Key(r)
		groups[k] = append(groups[k], v)
	}

	rows := make([]Row[K], 0, len(groups))
	for k, vals := range groups {
		// Summing in sorted order keeps the mean bit-identical for any input order.
		slices.Sort(vals)
		rows = append(rows, Row[K]{Key: k, Mean: stat.Mean(vals, nil), Count: len(vals)})
	}
	slices.SortFunc(rows, func(a, b Row[K]) int { return g.Compare(a.Key, b.Key) })
	return rows
}

// Categorize returns a copy of rows with each Category derived from its mean.
func Categorize[K comparable](rows []Row[K]) []Row[K] {
	out := slices.Clone(rows)
	for i := range out {
		out[i].Category = category.Categorize(out[i].Mean)
	}
	return out
}

// Where returns the rows whose key satisfies keep, in order.
func Where[K comparable](rows []Row[K], keep func(K) bool) []Row[K] {
	var out []Row[K]
	for _, r := range rows {
		if keep(r.Key) {
			out = append(out, r)
		}
	}
	return out
}

// Values returns the row means in order.
func Values[K comparable](rows []Row[K]) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Mean
	}
	return out
}
