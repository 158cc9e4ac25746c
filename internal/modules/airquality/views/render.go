package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"airwatch-server/internal/modules/airquality/aggregate"
	"airwatch-server/internal/modules/airquality/category"
	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/report"
	"airwatch-server/internal/modules/airquality/types"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

var printer = message.NewPrinter(language.Indonesian)

var funcs = template.FuncMap{
	"count": func(n int) string { return printer.Sprintf("%d", n) },
	"pm":    func(v float64) string { return printer.Sprintf("%.1f", v) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(report.DateLayout)
	},
	"month":    report.MonthName,
	"category": category.Categorize,
	"inc":      func(i int) int { return i + 1 },
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// DashboardData is the view model of the dashboard page.
type DashboardData struct {
	Range  report.DateRange
	Bounds report.DateRange

	// Summary is nil when the range selects no data.
	Summary *dataset.Summary
	Legend  []category.Category

	StationQuality []aggregate.Row[types.Station]
	StationRanking report.StationRanking
	YearlyTrend    report.YearlyTrend
	MonthlyTrend   report.MonthlyTrend

	Stations       []types.Station
	Station        types.Station
	StationMonthly []aggregate.Row[aggregate.StationMonth]

	ImageURL string
	Error    string
}

// Query is the range and station selection as URL query parameters.
func (d *DashboardData) Query() url.Values {
	q := url.Values{}
	if !d.Range.Start.IsZero() {
		q.Set("start", d.Range.Start.Format(report.DateLayout))
	}
	if !d.Range.End.IsZero() {
		q.Set("end", d.Range.End.Format(report.DateLayout))
	}
	if d.Station != "" {
		q.Set("station", d.Station.String())
	}
	return q
}

// ChartURL links a chart image with the current selection.
func (d *DashboardData) ChartURL(name string) template.URL {
	u := url.URL{Path: "/charts/" + name, RawQuery: d.Query().Encode()}
	return template.URL(u.String())
}

// ExportURL links the workbook download with the current selection.
func (d *DashboardData) ExportURL() template.URL {
	u := url.URL{Path: "/export.xlsx", RawQuery: d.Query().Encode()}
	return template.URL(u.String())
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderSummaryPartial executes only the summary partial, for fragment refresh.
func RenderSummaryPartial(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/summary.html", data)
}
