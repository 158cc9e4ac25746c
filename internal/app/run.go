package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"airwatch-server/internal/config"
	db "airwatch-server/internal/db"
	httpapi "airwatch-server/internal/httpapi"
	"airwatch-server/internal/migrate"
	airquality "airwatch-server/internal/modules/airquality"
	"airwatch-server/internal/modules/airquality/dataset"
	"airwatch-server/internal/modules/airquality/loader"
	"airwatch-server/internal/modules/airquality/report"
	"airwatch-server/internal/modules/airquality/repository"
	"airwatch-server/internal/modules/airquality/types"
	aqviews "airwatch-server/internal/modules/airquality/views"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"imagePath", cfg.ImagePath,
		"dataSource", cfg.DataSource,
		"dataPath", cfg.DataPath,
		"sqlitePath", cfg.SQLitePath,
	)

	data, dbConn, err := LoadDataset(cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	first, last, _ := data.Bounds()
	slog.Info("dataset loaded", "readings", data.Len(), "first", first.Format(report.DateLayout), "last", last.Format(report.DateLayout))

	if err := aqviews.LoadTemplates(); err != nil {
		return err
	}

	image, imageURL := loadImage(cfg.ImagePath)
	mux := httpapi.NewMux(dbConn, data, cfg.StaticDir, image)
	airquality.RegisterFeature(mux, report.NewService(data), imageURL)

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// LoadDataset reads the snapshot named by cfg. For the sqlite source the
// open database is returned too and the caller closes it; for files it is nil.
func LoadDataset(cfg config.Config) (*dataset.Dataset, *sql.DB, error) {
	switch cfg.DataSource {
	case config.SourceSQLite:
		conn, err := OpenSnapshot(cfg)
		if err != nil {
			return nil, nil, err
		}
		readings, err := repository.NewRepository(conn).GetReadings()
		if err != nil {
			_ = db.Close(conn)
			return nil, nil, fmt.Errorf("read snapshot: %w", err)
		}
		return dataset.New(readings), conn, nil
	default:
		data, err := loader.Load(cfg.DataPath, LoaderOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		return data, nil, nil
	}
}

// OpenSnapshot opens the snapshot database, applies pending migrations and
// adds any catalogue station the stations table lacks.
func OpenSnapshot(cfg config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrate.Run(conn); err != nil {
		_ = db.Close(conn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := repository.NewRepository(conn).SyncStations(types.Stations()); err != nil {
		_ = db.Close(conn)
		return nil, fmt.Errorf("sync stations: %w", err)
	}
	return conn, nil
}

func LoaderOptions(cfg config.Config) loader.Options {
	return loader.Options{
		Sheet:         cfg.DataSheet,
		DateColumn:    cfg.DataDateColumn,
		StationColumn: cfg.DataStationColumn,
		ValueColumn:   cfg.DataValueColumn,
	}
}

func loadImage(path string) ([]byte, string) {
	image, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("sidebar image not available", "path", path, "error", err)
		return nil, ""
	}
	return image, httpapi.ImagePath
}
