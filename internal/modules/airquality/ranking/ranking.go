// Package ranking orders aggregated rows and marks their extremes.
package ranking

import (
	"cmp"
	"slices"

	"airwatch-server/internal/modules/airquality/aggregate"
)

// Mode selects which extreme Extremum looks for.
type Mode int

const (
	Min Mode = iota
	Max
)

func (m Mode) String() string {
	if m == Max {
		return "max"
	}
	return "min"
}

// RankDescending returns a copy of rows sorted by mean, highest first.
// Equal means keep their input order.
func RankDescending[K comparable](rows []aggregate.Row[K]) []aggregate.Row[K] {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b aggregate.Row[K]) int {
		return cmp.Compare(b.Mean, a.Mean)
	})
	return out
}

// Extremum returns the row with the lowest or highest mean. The first row in
// input order wins a tie. ok is false for empty input.
func Extremum[K comparable](rows []aggregate.Row[K], mode Mode) (row aggregate.Row[K], ok bool) {
	if len(rows) == 0 {
		return row, false
	}
	best := 0
	for i := 1; i < len(rows); i++ {
		switch mode {
		case Min:
			if rows[i].Mean < rows[best].Mean {
				best = i
			}
		case Max:
			if rows[i].Mean > rows[best].Mean {
				best = i
			}
		}
	}
	return rows[best], true
}

// Highlight returns a copy of rows where exactly the rows whose mean equals
// ref are flagged.
func Highlight[K comparable](rows []aggregate.Row[K], ref float64) []aggregate.Row[K] {
	out := slices.Clone(rows)
	for i := range out {
		out[i].Highlighted = out[i].Mean == ref
	}
	return out
}

// HighlightExtremum flags every row sharing the extreme mean.
func HighlightExtremum[K comparable](rows []aggregate.Row[K], mode Mode) []aggregate.Row[K] {
	ext, ok := Extremum(rows, mode)
	if !ok {
		return slices.Clone(rows)
	}
	return Highlight(rows, ext.Mean)
}
