// Package export writes the dashboard tables to an Excel workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"airwatch-server/internal/modules/airquality/aggregate"
	"airwatch-server/internal/modules/airquality/category"
	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/report"
	"airwatch-server/internal/modules/airquality/types"
)

const (
	SheetSummary        = "Ringkasan"
	SheetStationQuality = "Kualitas Stasiun"
	SheetStationRanking = "Peringkat Stasiun"
	SheetYearlyTrend    = "Tren Tahunan"
	SheetMonthlyTrend   = "Tren Bulanan"
	SheetStationMonthly = "Stasiun Bulanan"
)

// Report holds every table of one export.
type Report struct {
	Range          report.DateRange
	Summary        *dataset.Summary
	StationQuality []aggregate.Row[types.Station]
	StationRanking report.StationRanking
	YearlyTrend    report.YearlyTrend
	MonthlyTrend   report.MonthlyTrend
	Station        types.Station
	StationMonthly []aggregate.Row[aggregate.StationMonth]
}

// Collect runs every report view for the range and station. An empty range
// leaves Summary nil; an empty station skips the station sheet's rows.
func Collect(svc *report.Service, r report.DateRange, station string) (Report, error) {
	out := Report{
		Range:          r,
		StationQuality: svc.StationQuality(r),
		StationRanking: svc.StationRanking(),
		YearlyTrend:    svc.YearlyTrend(),
		MonthlyTrend:   svc.MonthlyTrend(),
	}
	summary, err := svc.Summary(r)
	switch {
	case err == nil:
		out.Summary = &summary
	case !errors.Is(err, dataset.ErrNoData):
		return Report{}, err
	}
	if station != "" {
		st, err := types.ParseStation(station)
		if err != nil {
			return Report{}, err
		}
		rows, err := svc.StationMonthly(string(st))
		if err != nil {
			return Report{}, err
		}
		out.Station = st
		out.StationMonthly = rows
	}
	return out, nil
}

// Workbook builds the workbook. The caller closes the returned file.
func Workbook(r Report) (*excelize.File, error) {
	w := &writer{f: excelize.NewFile(), styles: make(map[styleKey]int)}
	steps := []func(Report) error{
		w.summary,
		w.stationQuality,
		w.stationRanking,
		w.yearlyTrend,
		w.monthlyTrend,
		w.stationMonthly,
	}
	for _, step := range steps {
		if err := step(r); err != nil {
			_ = w.f.Close()
			return nil, err
		}
	}
	return w.f, nil
}

// Write streams the workbook for r to out.
func Write(out io.Writer, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styleKey struct {
	cat  category.Category
	bold bool
}

type writer struct {
	f      *excelize.File
	styles map[styleKey]int
}

func (w *writer) summary(r Report) error {
	if err := w.f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := [][]any{
		{"Rentang Tanggal", r.Range.String()},
	}
	if r.Summary == nil {
		rows = append(rows, []any{"Keterangan", "Tidak ada data"})
	} else {
		rows = append(rows,
			[]any{"Jumlah Data", r.Summary.Readings},
			[]any{"Data Valid", r.Summary.Valid},
			[]any{"Rata-rata PM2.5", round(r.Summary.Mean)},
			[]any{"PM2.5 Terendah", round(r.Summary.Min)},
			[]any{"PM2.5 Tertinggi", round(r.Summary.Max)},
			[]any{"Kategori Rata-rata", category.Categorize(r.Summary.Mean).String()},
		)
	}
	for i, row := range rows {
		if err := w.setRow(SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	return w.f.SetColWidth(SheetSummary, "A", "B", 24)
}

func (w *writer) stationQuality(r Report) error {
	rows := make([]tableRow, len(r.StationQuality))
	for i, row := range r.StationQuality {
		rows[i] = tableRow{
			cells:    []any{i + 1, row.Key.String(), round(row.Mean), row.Count, row.Category.String()},
			category: row.Category,
			bold:     row.Highlighted,
		}
	}
	return w.table(SheetStationQuality, []any{"Peringkat", "Stasiun", "Rata-rata PM2.5", "Jumlah Data", "Kategori"}, rows, 5)
}

func (w *writer) stationRanking(r Report) error {
	rows := make([]tableRow, len(r.StationRanking.Rows))
	for i, row := range r.StationRanking.Rows {
		rows[i] = tableRow{
			cells: []any{i + 1, row.Key.String(), round(row.Mean), row.Count},
			bold:  row.Highlighted,
		}
	}
	return w.table(SheetStationRanking, []any{"Peringkat", "Stasiun", "Rata-rata PM2.5", "Jumlah Data"}, rows, 0)
}

func (w *writer) yearlyTrend(r Report) error {
	rows := make([]tableRow, len(r.YearlyTrend.Rows))
	for i, row := range r.YearlyTrend.Rows {
		rows[i] = tableRow{
			cells: []any{row.Key, round(row.Mean), row.Count},
			bold:  row.Highlighted,
		}
	}
	return w.table(SheetYearlyTrend, []any{"Tahun", "Rata-rata PM2.5", "Jumlah Data"}, rows, 0)
}

func (w *writer) monthlyTrend(r Report) error {
	rows := make([]tableRow, len(r.MonthlyTrend.Rows))
	for i, row := range r.MonthlyTrend.Rows {
		rows[i] = tableRow{
			cells: []any{report.MonthName(row.Key), round(row.Mean), row.Count},
			bold:  row.Highlighted,
		}
	}
	return w.table(SheetMonthlyTrend, []any{"Bulan", "Rata-rata PM2.5", "Jumlah Data"}, rows, 0)
}

func (w *writer) stationMonthly(r Report) error {
	rows := make([]tableRow, len(r.StationMonthly))
	for i, row := range r.StationMonthly {
		rows[i] = tableRow{
			cells:    []any{row.Key.Station.String(), report.MonthName(row.Key.Month), round(row.Mean), row.Count, row.Category.String()},
			category: row.Category,
		}
	}
	return w.table(SheetStationMonthly, []any{"Stasiun", "Bulan", "Rata-rata PM2.5", "Jumlah Data", "Kategori"}, rows, 5)
}

type tableRow struct {
	cells    []any
	category category.Category
	bold     bool
}

// table writes a header and rows to a new sheet. categoryCol is the 1-based
// column filled with the category color, or 0 for none.
func (w *writer) table(sheet string, header []any, rows []tableRow, categoryCol int) error {
	if _, err := w.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	if err := w.setRow(sheet, 1, header); err != nil {
		return err
	}
	if err := w.styleRange(sheet, 1, 1, len(header), styleKey{bold: true}); err != nil {
		return err
	}
	for i, row := range rows {
		n := i + 2
		if err := w.setRow(sheet, n, row.cells); err != nil {
			return err
		}
		if row.bold {
			if err := w.styleRange(sheet, n, 1, len(row.cells), styleKey{bold: true}); err != nil {
				return err
			}
		}
		if categoryCol > 0 && row.category != category.None {
			if err := w.styleRange(sheet, n, categoryCol, categoryCol, styleKey{cat: row.category, bold: row.bold}); err != nil {
				return err
			}
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", last, 18)
}

func (w *writer) setRow(sheet string, n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
	return nil
}

func (w *writer) styleRange(sheet string, row, fromCol, toCol int, key styleKey) error {
	id, err := w.style(key)
	if err != nil {
		return err
	}
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, from, to, id)
}

func (w *writer) style(key styleKey) (int, error) {
	if id, ok := w.styles[key]; ok {
		return id, nil
	}
	s := &excelize.Style{Font: &excelize.Font{Bold: key.bold}}
	if key.cat != category.None {
		s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{key.cat.Color()}}
	}
	id, err := w.f.NewStyle(s)
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	w.styles[key] = id
	return id, nil
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
