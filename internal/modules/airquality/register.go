package airquality

import (
	"net/http"

	"airwatch-server/internal/modules/airquality/controller"
	"airwatch-server/internal/modules/airquality/report"
)

func RegisterFeature(mux *http.ServeMux, service *report.Service, imageURL string) {
	airQualityController := controller.NewAirQualityController(service, imageURL)
	airQualityController.RegisterRoutes(mux)
}
