// Package category maps PM2.5 concentrations onto the five-tier BMKG
// air quality scale.
package category

import (
	"fmt"
	"math"
)

// Category is an ordinal air quality level. The zero value is None.
type Category int

const (
	None Category = iota
	Baik
	Sedang
	TidakSehat
	SangatTidakSehat
	Berbahaya
)

type level struct {
	label      string
	color      string
	upper      float64 // inclusive; +Inf for the last tier
	rangeLabel string
}

var levels = map[Category]level{
	Baik:             {label: "Baik", color: "#5CB338", upper: 15.5, rangeLabel: "0-15.5 µg/m³"},
	Sedang:           {label: "Sedang", color: "#B4EBE6", upper: 55.4, rangeLabel: "15.6-55.4 µg/m³"},
	TidakSehat:       {label: "Tidak Sehat", color: "#FFC145", upper: 150.4, rangeLabel: "55.5-150.4 µg/m³"},
	SangatTidakSehat: {label: "Sangat Tidak Sehat", color: "#FB4141", upper: 250.4, rangeLabel: "150.5-250.4 µg/m³"},
	Berbahaya:        {label: "Berbahaya", color: "#A5158C", upper: math.Inf(1), rangeLabel: ">250.4 µg/m³"},
}

var ordered = []Category{Baik, Sedang, TidakSehat, SangatTidakSehat, Berbahaya}

// Categorize returns the level for a PM2.5 concentration in µg/m³.
// Negative values fall into Baik; NaN has no category.
func Categorize(v float64) Category {
	if math.IsNaN(v) {
		return None
	}
	for _, c := range ordered {
		if v <= levels[c].upper {
			return c
		}
	}
	return Berbahaya
}

// All returns the five levels in ascending order of severity.
func All() []Category {
	out := make([]Category, len(ordered))
	copy(out, ordered)
	return out
}

// Parse resolves a label such as "Tidak Sehat".
func Parse(label string) (Category, error) {
	for _, c := range ordered {
		if levels[c].label == label {
			return c, nil
		}
	}
	return None, fmt.Errorf("unknown category %q", label)
}

func (c Category) String() string {
	if l, ok := levels[c]; ok {
		return l.label
	}
	return ""
}

// Color is the display color as #RRGGBB. None has no color.
func (c Category) Color() string {
	return levels[c].color
}

// UpperBound is the inclusive upper bound of the level in µg/m³.
func (c Category) UpperBound() float64 {
	if l, ok := levels[c]; ok {
		return l.upper
	}
	return math.NaN()
}

// RangeLabel describes the concentration interval for legends.
func (c Category) RangeLabel() string {
	return levels[c].rangeLabel
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = None
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
