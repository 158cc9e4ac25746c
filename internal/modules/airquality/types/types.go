package types

import "time"

// Reading is one daily PM2.5 observation from a station.
// PM25 is nil when the station reported no value for that date.
type Reading struct {
	Date    time.Time `json:"date"`
	Station Station   `json:"station"`
	PM25    *float64  `json:"pm25"`
}

// Value returns the reading's PM2.5 concentration and whether it is present.
func (r Reading) Value() (float64, bool) {
	if r.PM25 == nil {
		return 0, false
	}
	return *r.PM25, true
}

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v. Handy when building readings by hand.
func Float(v float64) *float64 {
	return &v
}
