// Package loader reads the PM2.5 snapshot from a CSV or XLSX file.
package loader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"

	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/types"
)

var (
	ErrMissingColumn     = errors.New("missing column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Cells treated as a missing value.
var naValues = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
}

type Options struct {
	// Sheet is the XLSX worksheet to read. Empty means the first sheet.
	Sheet         string
	DateColumn    string
	StationColumn string
	ValueColumn   string
}

func DefaultOptions() Options {
	return Options{
		DateColumn:    "date",
		StationColumn: "station",
		ValueColumn:   "PM2.5",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DateColumn == "" {
		o.DateColumn = d.DateColumn
	}
	if o.StationColumn == "" {
		o.StationColumn = d.StationColumn
	}
	if o.ValueColumn == "" {
		o.ValueColumn = d.ValueColumn
	}
	return o
}

// Load picks the reader from the file extension.
func Load(path string, opts Options) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		ds, err := LoadCSV(f, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ds, nil
	case ".xlsx":
		ds, err := LoadXLSX(path, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadCSV reads a comma separated snapshot with a header row.
func LoadCSV(r io.Reader, opts Options) (*dataset.Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	return fromFrame(df, opts.withDefaults(), nil)
}

// LoadXLSX reads one worksheet whose first row is the header.
func LoadXLSX(path string, opts Options) (*dataset.Dataset, error) {
	opts = opts.withDefaults()

	book, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	if len(book.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := book.Sheets[0]
	if opts.Sheet != "" {
		s, ok := book.Sheet[opts.Sheet]
		if !ok {
			return nil, fmt.Errorf("sheet %q not found", opts.Sheet)
		}
		sheet = s
	}

	records := sheetRecords(sheet)
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet.Name)
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet.Name, df.Err)
	}
	date1904 := book.Date1904
	return fromFrame(df, opts, func(s string) (time.Time, bool) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return xlsx.TimeFromExcelTime(serial, date1904), true
	})
}

// sheetRecords pads every row to the header width so gota sees a rectangle.
func sheetRecords(sheet *xlsx.Sheet) [][]string {
	if len(sheet.Rows) == 0 || sheet.Rows[0] == nil {
		return nil
	}
	width := len(sheet.Rows[0].Cells)
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		rec := make([]string, width)
		empty := true
		for i, cell := range row.Cells {
			if i >= width {
				break
			}
			rec[i] = strings.TrimSpace(cell.Value)
			if rec[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func fromFrame(df dataframe.DataFrame, opts Options, serialDate func(string) (time.Time, bool)) (*dataset.Dataset, error) {
	names := make(map[string]bool)
	for _, n := range df.Names() {
		names[n] = true
	}
	for _, col := range []string{opts.DateColumn, opts.StationColumn, opts.ValueColumn} {
		if !names[col] {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}

	dates := df.Col(opts.DateColumn)
	stations := df.Col(opts.StationColumn)
	values := df.Col(opts.ValueColumn)

	readings := make([]types.Reading, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		// Row numbers are 1-based and count the header.
		line := i + 2

		dateEl := dates.Elem(i)
		if dateEl.IsNA() {
			return nil, fmt.Errorf("row %d: missing date", line)
		}
		date, err := parseDate(dateEl.String(), serialDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		stationEl := stations.Elem(i)
		if stationEl.IsNA() {
			return nil, fmt.Errorf("row %d: missing station", line)
		}
		st, err := types.ParseStation(stationEl.String())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		r := types.Reading{Date: date, Station: st}
		if valueEl := values.Elem(i); !valueEl.IsNA() {
			v, err := parseValue(valueEl.String())
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			r.PM25 = &v
		}
		readings = append(readings, r)
	}
	return dataset.New(readings), nil
}

func parseDate(s string, serialDate func(string) (time.Time, bool)) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.DateOnly(t), nil
		}
	}
	if serialDate != nil {
		if t, ok := serialDate(s); ok {
			return types.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PM2.5 value %q", s)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return 0, fmt.Errorf("PM2.5 value %v out of range", v)
	}
	return v, nil
}
