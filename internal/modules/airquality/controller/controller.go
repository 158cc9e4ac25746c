package controller

import (
	"net/http"

	"airwatch-server/internal/modules/airquality/report"
)

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	service  *report.Service
	imageURL string
}

// NewAirQualityController serves the dashboard, its JSON API, charts and the
// workbook export. imageURL is the sidebar illustration; empty hides it.
func NewAirQualityController(service *report.Service, imageURL string) AirQualityController {
	return &airQualityControllerImpl{service: service, imageURL: imageURL}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("GET /partials/summary", c.handleSummaryPartial)

	mux.HandleFunc("GET /api/bounds", c.handleBounds)
	mux.HandleFunc("GET /api/categories", c.handleCategories)
	mux.HandleFunc("GET /api/summary", c.handleSummary)
	mux.HandleFunc("GET /api/stations/quality", c.handleStationQuality)
	mux.HandleFunc("GET /api/stations/ranking", c.handleStationRanking)
	mux.HandleFunc("GET /api/stations/{station}/monthly", c.handleStationMonthly)
	mux.HandleFunc("GET /api/trends/yearly", c.handleYearlyTrend)
	mux.HandleFunc("GET /api/trends/monthly", c.handleMonthlyTrend)

	mux.HandleFunc("GET /charts/{chart}", c.handleChart)
	mux.HandleFunc("GET /export.xlsx", c.handleExport)
}
