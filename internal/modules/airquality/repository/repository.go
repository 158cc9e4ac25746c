package repository

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"airwatch-server/internal/modules/airquality/types"
)

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

//go:embed sql/get-station-id-by-name.sql
var getStationIDByNameSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/delete-readings.sql
var deleteReadingsSQL string

//go:embed sql/insert-station.sql
var insertStationSQL string

const dateLayout = "2006-01-02"

// SnapshotRepository reads and writes the SQLite form of the PM2.5 snapshot.
type SnapshotRepository interface {
	GetStations() ([]types.Station, error)
	GetReadings() ([]types.Reading, error)
	GetReadingsCount() (int, error)
	SyncStations(stations []types.Station) error
	InsertReadings(readings []types.Reading) error
	ReplaceReadings(readings []types.Reading) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SnapshotRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetStations() ([]types.Station, error) {
	rows, err := r.db.Query(getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()

	var out []types.Station
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, types.Station(name))
	}
	return out, rows.Err()
}

// GetReadings returns every reading ordered by date, then station name.
func (r *repositoryImpl) GetReadings() ([]types.Reading, error) {
	rows, err := r.db.Query(getReadingsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	var out []types.Reading
	for rows.Next() {
		var (
			name string
			date string
			pm25 sql.NullFloat64
		)
		if err := rows.Scan(&name, &date, &pm25); err != nil {
			return nil, err
		}
		st, err := types.ParseStation(name)
		if err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		reading := types.Reading{Date: d, Station: st}
		if pm25.Valid {
			reading.PM25 = types.Float(pm25.Float64)
		}
		out = append(out, reading)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetReadingsCount() (int, error) {
	var n int
	if err := r.db.QueryRow(getReadingsCountSQL).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SyncStations adds the catalogue stations missing from the stations table.
// Existing rows keep their ids.
func (r *repositoryImpl) SyncStations(stations []types.Station) error {
	return r.withTx("sync stations", func(tx *sql.Tx) error {
		for _, st := range stations {
			if _, err := tx.Exec(insertStationSQL, string(st)); err != nil {
				return fmt.Errorf("insert station %q: %w", st, err)
			}
		}
		return nil
	})
}

// InsertReadings appends readings in a single transaction. Every station must
// already exist in the stations table.
func (r *repositoryImpl) InsertReadings(readings []types.Reading) error {
	return r.withTx("insert readings", func(tx *sql.Tx) error {
		return insertReadings(tx, readings)
	})
}

// ReplaceReadings swaps the stored snapshot for readings in one transaction,
// so a failed import leaves the previous snapshot in place.
func (r *repositoryImpl) ReplaceReadings(readings []types.Reading) error {
	return r.withTx("replace readings", func(tx *sql.Tx) error {
		if _, err := tx.Exec(deleteReadingsSQL); err != nil {
			return fmt.Errorf("delete readings: %w", err)
		}
		return insertReadings(tx, readings)
	})
}

func (r *repositoryImpl) withTx(op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback "+op, "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertReadings(tx *sql.Tx, readings []types.Reading) (err error) {
	stmt, err := tx.Prepare(insertReadingSQL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			slog.Error("close insert statement", "error", closeErr)
		}
	}()

	ids := make(map[types.Station]int64)
	for _, reading := range readings {
		id, ok := ids[reading.Station]
		if !ok {
			err = tx.QueryRow(getStationIDByNameSQL, string(reading.Station)).Scan(&id)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %q", types.ErrUnknownStation, reading.Station)
			}
			if err != nil {
				return fmt.Errorf("station id %q: %w", reading.Station, err)
			}
			ids[reading.Station] = id
		}

		var pm25 any
		if v, ok := reading.Value(); ok {
			pm25 = v
		}
		if _, err = stmt.Exec(id, types.DateOnly(reading.Date).Format(dateLayout), pm25); err != nil {
			return fmt.Errorf("insert reading %s/%s: %w", reading.Station, reading.Date.Format(dateLayout), err)
		}
	}
	return nil
}
