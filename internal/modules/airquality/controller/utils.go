package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"airwatch-server/internal/modules/airquality/report"
	"airwatch-server/internal/modules/airquality/types"
)

// parseRange reads start and end (YYYY-MM-DD) from the query and clamps them
// to the dataset bounds. A reversed range is kept as is and selects nothing.
func parseRange(r *http.Request, svc *report.Service) (report.DateRange, error) {
	q := r.URL.Query()
	rng, err := report.ParseDateRange(q.Get("start"), q.Get("end"))
	if err != nil {
		return report.DateRange{}, err
	}
	return svc.Clamp(rng), nil
}

// parseStation resolves the station query parameter. Empty selects the
// first station of the catalogue.
func parseStation(r *http.Request) (types.Station, error) {
	name := r.URL.Query().Get("station")
	if name == "" {
		stations := types.Stations()
		if len(stations) == 0 {
			return "", errors.New("no stations configured")
		}
		return stations[0], nil
	}
	return types.ParseStation(name)
}

func exportFilename(rng report.DateRange) string {
	return fmt.Sprintf("kualitas-udara_%s_%s.xlsx", rng.Start.Format(report.DateLayout), rng.End.Format(report.DateLayout))
}

type writerToFunc func(w io.Writer) (int64, error)

func (f writerToFunc) WriteTo(w io.Writer) (int64, error) { return f(w) }

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
