// Package charts renders the dashboard figures as PNG images.
package charts

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"airwatch-server/internal/modules/airquality/aggregate"
	"airwatch-server/internal/modules/airquality/category"
	"airwatch-server/internal/modules/airquality/types"
)

const (
	width  = 9 * vg.Inch
	height = 5 * vg.Inch
	format = "png"
)

var barWidth = vg.Points(22)

var (
	highlightGreen = hexColor("#2E8B57")
	highlightRed   = hexColor("#D62728")
	stationBlue    = hexColor("#A9CCE3")
	yearGrey       = hexColor("#D3D3D3")
	trendLine      = hexColor("#1F3B57")
)

// StationQuality draws horizontal bars, worst station on top, colored by
// category, with the category legend.
func StationQuality(rows []aggregate.Row[types.Station]) (io.WriterTo, error) {
	p := newPlot("Peringkat Kualitas Udara per Stasiun", "Rata-rata PM2.5 (µg/m³)", "")
	n := len(rows)
	names := make([]string, n)
	for i, row := range rows {
		// Row 0 is the worst; draw it at the top.
		y := float64(n - 1 - i)
		names[n-1-i] = row.Key.String()
		if err := addBar(p, y, row.Mean, categoryColor(row.Category), true); err != nil {
			return nil, err
		}
		if err := addLabel(p, row.Mean, y, fmt.Sprintf("%.1f (%s)", row.Mean, row.Category), true); err != nil {
			return nil, err
		}
	}
	if n > 0 {
		p.NominalY(names...)
	}
	addCategoryLegend(p)
	return p.WriterTo(width, height, format)
}

// StationRanking draws the all-time station means with highlighted rows in
// green.
func StationRanking(rows []aggregate.Row[types.Station]) (io.WriterTo, error) {
	p := newPlot("Rata-rata PM2.5 per Stasiun", "Rata-rata PM2.5 (µg/m³)", "")
	n := len(rows)
	names := make([]string, n)
	for i, row := range rows {
		y := float64(n - 1 - i)
		names[n-1-i] = row.Key.String()
		c := stationBlue
		if row.Highlighted {
			c = highlightGreen
		}
		if err := addBar(p, y, row.Mean, c, true); err != nil {
			return nil, err
		}
		if err := addLabel(p, row.Mean, y, strconv.FormatFloat(row.Mean, 'f', 1, 64), true); err != nil {
			return nil, err
		}
	}
	if n > 0 {
		p.NominalY(names...)
	}
	return p.WriterTo(width, height, format)
}

// YearlyTrend draws one bar per year, highlighted years in red, with a dashed
// line through the means.
func YearlyTrend(rows []aggregate.Row[int]) (io.WriterTo, error) {
	p := newPlot("Tren Tahunan PM2.5", "Tahun", "Rata-rata PM2.5 (µg/m³)")
	names := make([]string, len(rows))
	pts := make(plotter.XYs, len(rows))
	for i, row := range rows {
		x := float64(i)
		names[i] = strconv.Itoa(row.Key)
		pts[i] = plotter.XY{X: x, Y: row.Mean}
		c := yearGrey
		if row.Highlighted {
			c = highlightRed
		}
		if err := addBar(p, x, row.Mean, c, false); err != nil {
			return nil, err
		}
		if err := addLabel(p, x, row.Mean, strconv.FormatFloat(row.Mean, 'f', 1, 64), false); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("trend line: %w", err)
		}
		line.Color = trendLine
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		points.GlyphStyle.Color = trendLine
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(3)
		p.Add(line, points)
		p.Legend.Add("Tren", line, points)
		p.NominalX(names...)
	}
	return p.WriterTo(width, height, format)
}

// MonthlyTrend draws one bar per calendar month, highlighted months in green.
func MonthlyTrend(rows []aggregate.Row[time.Month]) (io.WriterTo, error) {
	p := newPlot("Rata-rata PM2.5 per Bulan", "Bulan", "Rata-rata PM2.5 (µg/m³)")
	names := make([]string, len(rows))
	for i, row := range rows {
		x := float64(i)
		names[i] = row.Key.String()[:3]
		c := stationBlue
		if row.Highlighted {
			c = highlightGreen
		}
		if err := addBar(p, x, row.Mean, c, false); err != nil {
			return nil, err
		}
		if err := addLabel(p, x, row.Mean, strconv.FormatFloat(row.Mean, 'f', 1, 64), false); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		p.NominalX(names...)
	}
	return p.WriterTo(width, height, format)
}

// StationMonthly draws a station's monthly means colored by category.
func StationMonthly(station types.Station, rows []aggregate.Row[aggregate.StationMonth]) (io.WriterTo, error) {
	p := newPlot("Kualitas Udara Bulanan: "+station.String(), "Bulan", "Rata-rata PM2.5 (µg/m³)")
	names := make([]string, len(rows))
	for i, row := range rows {
		x := float64(i)
		names[i] = row.Key.Month.String()[:3]
		if err := addBar(p, x, row.Mean, categoryColor(row.Category), false); err != nil {
			return nil, err
		}
		if err := addLabel(p, x, row.Mean, strconv.FormatFloat(row.Mean, 'f', 1, 64), false); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		p.NominalX(names...)
	}
	addCategoryLegend(p)
	return p.WriterTo(width, height, format)
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// addBar adds a single bar at position pos. Bars are drawn one at a time so
// each can carry its own color.
func addBar(p *plot.Plot, pos, value float64, c color.Color, horizontal bool) error {
	bar, err := plotter.NewBarChart(plotter.Values{value}, barWidth)
	if err != nil {
		return fmt.Errorf("bar at %v: %w", pos, err)
	}
	bar.XMin = pos
	bar.Horizontal = horizontal
	bar.Color = c
	bar.LineStyle.Width = vg.Length(0)
	p.Add(bar)
	return nil
}

func addLabel(p *plot.Plot, pos, value float64, text string, horizontal bool) error {
	xy := plotter.XY{X: pos, Y: value}
	offset := vg.Point{X: -vg.Points(10), Y: vg.Points(4)}
	if horizontal {
		offset = vg.Point{X: vg.Points(4), Y: -vg.Points(4)}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: plotter.XYs{xy}, Labels: []string{text}})
	if err != nil {
		return fmt.Errorf("label %q: %w", text, err)
	}
	labels.Offset = offset
	p.Add(labels)
	return nil
}

func addCategoryLegend(p *plot.Plot) {
	for _, c := range category.All() {
		p.Legend.Add(c.String()+" ("+c.RangeLabel()+")", swatch{categoryColor(c)})
	}
}

// swatch is a legend thumbnail filled with a single color.
type swatch struct{ c color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.c, c.ClipPolygonY(pts))
}

func categoryColor(c category.Category) color.Color {
	if c == category.None {
		return yearGrey
	}
	return hexColor(c.Color())
}

// hexColor parses #RRGGBB. Malformed input yields opaque black.
func hexColor(s string) color.RGBA {
	out := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return out
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return out
	}
	out.R = uint8(v >> 16)
	out.G = uint8(v >> 8)
	out.B = uint8(v)
	return out
}
