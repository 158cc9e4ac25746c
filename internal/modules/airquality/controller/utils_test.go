package controller

import (
	"errors"
	"net/http/httptest"
	"testing"

	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/report"
	"airwatch-server/internal/modules/airquality/types"
)

func Test_parseRange(t *testing.T) {
	svc := report.NewService(dataset.New([]types.Reading{
		{Date: day(2014, 1, 1), Station: "Wanliu", PM25: types.Float(1)},
		{Date: day(2015, 1, 1), Station: "Wanliu", PM25: types.Float(2)},
	}))

	tests := []struct {
		name    string
		query   string
		want    report.DateRange
		wantErr bool
	}{
		{name: "empty takes bounds", query: "", want: report.DateRange{Start: day(2014, 1, 1), End: day(2015, 1, 1)}},
		{name: "inside bounds", query: "start=2014-02-01&end=2014-03-01", want: report.DateRange{Start: day(2014, 2, 1), End: day(2014, 3, 1)}},
		{name: "clamped", query: "start=2010-01-01&end=2020-01-01", want: report.DateRange{Start: day(2014, 1, 1), End: day(2015, 1, 1)}},
		{name: "reversed kept", query: "start=2014-06-01&end=2014-05-01", want: report.DateRange{Start: day(2014, 6, 1), End: day(2014, 5, 1)}},
		{name: "bad start", query: "start=2014/01/01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/summary?"+tt.query, nil)
			got, err := parseRange(req, svc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) {
				t.Errorf("parseRange() = %v; want %v", got, tt.want)
			}
		})
	}
}

func Test_parseStation(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	got, err := parseStation(req)
	if err != nil || got != types.Stations()[0] {
		t.Errorf("default station = %q, %v; want %q", got, err, types.Stations()[0])
	}

	req = httptest.NewRequest("GET", "/?station=Wanliu", nil)
	if got, err := parseStation(req); err != nil || got != "Wanliu" {
		t.Errorf("parseStation(Wanliu) = %q, %v", got, err)
	}

	req = httptest.NewRequest("GET", "/?station=Dongsi", nil)
	if _, err := parseStation(req); !errors.Is(err, types.ErrUnknownStation) {
		t.Errorf("parseStation(Dongsi) error = %v; want ErrUnknownStation", err)
	}
}

func Test_exportFilename(t *testing.T) {
	got := exportFilename(report.DateRange{Start: day(2013, 3, 1), End: day(2017, 2, 28)})
	if got != "kualitas-udara_2013-03-01_2017-02-28.xlsx" {
		t.Errorf("exportFilename() = %q", got)
	}
}
