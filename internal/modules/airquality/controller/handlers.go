package controller

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"

	"airwatch-server/internal/modules/airquality/category"
	"airwatch-server/internal/modules/airquality/charts"
	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/export"
	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/modules/airquality/views"
	"airwatch-server/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (c *airQualityControllerImpl) dashboardData(r *http.Request) (*views.DashboardData, int) {
	svc := c.service
	data := &views.DashboardData{
		Bounds:         svc.Bounds(),
		Range:          svc.Bounds(),
		Legend:         svc.Legend(),
		StationRanking: svc.StationRanking(),
		YearlyTrend:    svc.YearlyTrend(),
		MonthlyTrend:   svc.MonthlyTrend(),
		Stations:       types.Stations(),
		ImageURL:       c.imageURL,
	}
	status := http.StatusOK

	rng, err := parseRange(r, svc)
	if err != nil {
		data.Error = err.Error()
		status = http.StatusBadRequest
	} else {
		data.Range = rng
	}

	station, err := parseStation(r)
	if err != nil {
		data.Error = err.Error()
		status = http.StatusBadRequest
	} else {
		data.Station = station
		// Parsed above, so StationMonthly cannot fail on the name.
		data.StationMonthly, _ = svc.StationMonthly(station.String())
	}

	if summary, err := svc.Summary(data.Range); err == nil {
		data.Summary = &summary
	}
	data.StationQuality = svc.StationQuality(data.Range)
	return data, status
}

func (c *airQualityControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, status := c.dashboardData(r)
	c.renderHTML(w, status, func(out io.Writer) error { return views.RenderDashboard(out, data) })
}

func (c *airQualityControllerImpl) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	data, status := c.dashboardData(r)
	c.renderHTML(w, status, func(out io.Writer) error { return views.RenderSummaryPartial(out, data) })
}

func (c *airQualityControllerImpl) renderHTML(w http.ResponseWriter, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("dashboard write failed", "error", err)
	}
}

func (c *airQualityControllerImpl) handleBounds(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.Bounds())
}

type categoryInfo struct {
	Label      string   `json:"label"`
	Color      string   `json:"color"`
	Range      string   `json:"range"`
	UpperBound *float64 `json:"upperBound"`
}

func (c *airQualityControllerImpl) handleCategories(w http.ResponseWriter, r *http.Request) {
	legend := c.service.Legend()
	out := make([]categoryInfo, len(legend))
	for i, cat := range legend {
		out[i] = categoryInfo{Label: cat.String(), Color: cat.Color(), Range: cat.RangeLabel()}
		if ub := cat.UpperBound(); !math.IsInf(ub, 1) {
			out[i].UpperBound = &ub
		}
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *airQualityControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r, c.service)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := c.service.Summary(rng)
	if errors.Is(err, dataset.ErrNoData) {
		utils.WriteJSON(w, http.StatusOK, map[string]any{"range": rng, "noData": true})
		return
	}
	if err != nil {
		slog.Error("summary failed", "range", rng.String(), "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"range":    rng,
		"noData":   false,
		"summary":  summary,
		"category": category.Categorize(summary.Mean),
	})
}

func (c *airQualityControllerImpl) handleStationQuality(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r, c.service)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"range": rng,
		"rows":  c.service.StationQuality(rng),
	})
}

func (c *airQualityControllerImpl) handleStationRanking(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.StationRanking())
}

func (c *airQualityControllerImpl) handleYearlyTrend(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.YearlyTrend())
}

func (c *airQualityControllerImpl) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.MonthlyTrend())
}

func (c *airQualityControllerImpl) handleStationMonthly(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.StationMonthly(r.PathValue("station"))
	if errors.Is(err, types.ErrUnknownStation) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"station": r.PathValue("station"),
		"rows":    rows,
	})
}

func (c *airQualityControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	var (
		img io.WriterTo
		err error
	)
	switch name := r.PathValue("chart"); name {
	case "station-quality.png":
		rng, perr := parseRange(r, c.service)
		if perr != nil {
			utils.WriteError(w, http.StatusBadRequest, perr.Error())
			return
		}
		img, err = charts.StationQuality(c.service.StationQuality(rng))
	case "station-ranking.png":
		img, err = charts.StationRanking(c.service.StationRanking().Rows)
	case "yearly-trend.png":
		img, err = charts.YearlyTrend(c.service.YearlyTrend().Rows)
	case "monthly-trend.png":
		img, err = charts.MonthlyTrend(c.service.MonthlyTrend().Rows)
	case "station-monthly.png":
		station, perr := parseStation(r)
		if perr != nil {
			utils.WriteError(w, http.StatusBadRequest, perr.Error())
			return
		}
		rows, _ := c.service.StationMonthly(station.String())
		img, err = charts.StationMonthly(station, rows)
	default:
		utils.WriteError(w, http.StatusNotFound, "unknown chart "+name)
		return
	}
	if err != nil {
		slog.Error("chart build failed", "chart", r.PathValue("chart"), "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to build chart")
		return
	}
	utils.WriteBody(w, "image/png", "", img)
}

func (c *airQualityControllerImpl) handleExport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r, c.service)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := export.Collect(c.service, rng, r.URL.Query().Get("station"))
	if errors.Is(err, types.ErrUnknownStation) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("export failed", "range", rng.String(), "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	body := writerToFunc(func(out io.Writer) (int64, error) {
		cw := &countingWriter{w: out}
		err := export.Write(cw, rep)
		return cw.n, err
	})
	utils.WriteBody(w, xlsxContentType, exportFilename(rng), body)
}
