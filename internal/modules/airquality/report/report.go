// Package report assembles the dashboard views. Every method re-runs its
// pipeline (filter, aggregate, categorize, rank) over the loaded dataset; the
// dataset itself is never modified, so a Service is safe for concurrent use.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"airwatch-server/internal/modules/airquality/aggregate"
	"airwatch-server/internal/modules/airquality/category"
	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/ranking"
	"airwatch-server/internal/modules/airquality/types"
)

type Service struct {
	data *dataset.Dataset
}

func NewService(data *dataset.Dataset) *Service {
	return &Service{data: data}
}

// Dataset returns the underlying snapshot.
func (s *Service) Dataset() *dataset.Dataset {
	return s.data
}

// Bounds is the selectable date range: the first and last reading dates.
func (s *Service) Bounds() DateRange {
	first, last, _ := s.data.Bounds()
	return DateRange{Start: first, End: last}
}

// Clamp limits r to the dataset bounds. Zero dates take the bound.
func (s *Service) Clamp(r DateRange) DateRange {
	b := s.Bounds()
	if r.Start.IsZero() || r.Start.Before(b.Start) {
		r.Start = b.Start
	}
	if r.End.IsZero() || r.End.After(b.End) {
		r.End = b.End
	}
	return r
}

// Summary returns mean, min and max PM2.5 within r.
// It returns dataset.ErrNoData when r selects no values.
func (s *Service) Summary(r DateRange) (dataset.Summary, error) {
	return s.data.FilterByDateRange(r.Start, r.End).Summarize()
}

// StationQuality ranks stations by mean PM2.5 within r, worst first, each
// labelled with its category.
func (s *Service) StationQuality(r DateRange) []aggregate.Row[types.Station] {
	filtered := s.data.FilterByDateRange(r.Start, r.End)
	rows := aggregate.MeanBy(filtered.Readings(), aggregate.ByStation)
	return aggregate.Categorize(ranking.RankDescending(rows))
}

// StationRanking is the all-time station ranking with the cleanest
// station highlighted.
type StationRanking struct {
	Rows     []aggregate.Row[types.Station] `json:"rows"`
	Cleanest *aggregate.Row[types.Station]  `json:"cleanest,omitempty"`
	Dirtiest *aggregate.Row[types.Station]  `json:"dirtiest,omitempty"`
}

func (s *Service) StationRanking() StationRanking {
	rows := ranking.RankDescending(aggregate.MeanBy(s.data.Readings(), aggregate.ByStation))
	out := StationRanking{Rows: ranking.HighlightExtremum(rows, ranking.Min)}
	if lo, ok := ranking.Extremum(rows, ranking.Min); ok {
		out.Cleanest = &lo
	}
	if hi, ok := ranking.Extremum(rows, ranking.Max); ok {
		out.Dirtiest = &hi
	}
	return out
}

// YearlyTrend is the mean per calendar year with the worst year highlighted.
type YearlyTrend struct {
	Rows  []aggregate.Row[int] `json:"rows"`
	Worst *aggregate.Row[int]  `json:"worst,omitempty"`
}

func (s *Service) YearlyTrend() YearlyTrend {
	rows := aggregate.MeanBy(s.data.Readings(), aggregate.ByYear)
	out := YearlyTrend{Rows: ranking.HighlightExtremum(rows, ranking.Max)}
	if hi, ok := ranking.Extremum(rows, ranking.Max); ok {
		out.Worst = &hi
	}
	return out
}

// MonthlyTrend is the mean per calendar month, pooled across years, with the
// cleanest month highlighted.
type MonthlyTrend struct {
	Rows          []aggregate.Row[time.Month] `json:"rows"`
	BestMonth     time.Month                  `json:"bestMonth,omitempty"`
	BestMonthName string                      `json:"bestMonthName,omitempty"`
}

func (s *Service) MonthlyTrend() MonthlyTrend {
	rows := aggregate.MeanBy(s.data.Readings(), aggregate.ByMonth)
	out := MonthlyTrend{Rows: ranking.HighlightExtremum(rows, ranking.Min)}
	if best, ok := ranking.Extremum(rows, ranking.Min); ok {
		out.BestMonth = best.Key
		out.BestMonthName = best.Key.String()
	}
	return out
}

// StationMonthly returns the categorized monthly means of one station.
// An unknown name fails with types.ErrUnknownStation.
func (s *Service) StationMonthly(station string) ([]aggregate.Row[aggregate.StationMonth], error) {
	st, err := types.ParseStation(station)
	if err != nil {
		return nil, err
	}
	rows := aggregate.MeanBy(s.data.Readings(), aggregate.ByStationMonth)
	rows = aggregate.Where(rows, func(k aggregate.StationMonth) bool { return k.Station == st })
	return aggregate.Categorize(rows), nil
}

// Legend lists the categories in ascending severity.
func (s *Service) Legend() []category.Category {
	return category.All()
}

// DateRange is an inclusive pair of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

const DateLayout = "2006-01-02"

// ParseDateRange parses YYYY-MM-DD dates. An empty string leaves the
// corresponding side zero so Clamp can fill it in.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if start != "" {
		if r.Start, err = time.Parse(DateLayout, start); err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", start)
		}
	}
	if end != "" {
		if r.End, err = time.Parse(DateLayout, end); err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q (expected YYYY-MM-DD)", end)
		}
	}
	return r, nil
}

// MarshalJSON writes both dates as YYYY-MM-DD; a zero date is null.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start *string `json:"start"`
		End   *string `json:"end"`
	}{formatDate(r.Start), formatDate(r.End)})
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + " - " + r.End.Format(DateLayout)
}

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return monthNames[m-1]
}
