package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"airwatch-server/internal/config"
	"airwatch-server/internal/db"
	"airwatch-server/internal/modules/airquality/loader"
	"airwatch-server/internal/modules/airquality/repository"
	"airwatch-server/internal/modules/airquality/types"
)

const csvSnapshot = `date,station,PM2.5
2016-01-01,Tiantan,80
2016-01-01,Changping,10
2016-01-02,Tiantan,NA
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "all_data.csv")
	if err := os.WriteFile(path, []byte(csvSnapshot), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadDataset_file(t *testing.T) {
	cfg := config.Config{DataSource: config.SourceFile, DataPath: writeCSV(t)}
	data, conn, err := LoadDataset(cfg)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if conn != nil {
		t.Error("file source returned a database")
	}
	if data.Len() != 3 {
		t.Errorf("Len = %d; want 3", data.Len())
	}
}

func TestLoadDataset_fileMissingColumn(t *testing.T) {
	cfg := config.Config{DataSource: config.SourceFile, DataPath: writeCSV(t), DataValueColumn: "PM10"}
	_, _, err := LoadDataset(cfg)
	if !errors.Is(err, loader.ErrMissingColumn) {
		t.Fatalf("err = %v; want ErrMissingColumn", err)
	}
}

func TestLoadDataset_sqlite(t *testing.T) {
	cfg := config.Config{
		DataSource:         config.SourceSQLite,
		SQLiteDriver:       "sqlite3",
		SQLitePath:         filepath.Join(t.TempDir(), "snapshot.db"),
		SQLiteMaxOpenConns: 1,
		SQLiteMaxIdleConns: 1,
	}

	seed, err := OpenSnapshot(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	err = repository.NewRepository(seed).InsertReadings([]types.Reading{
		{Date: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), Station: "Wanliu", PM25: types.Float(33)},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = db.Close(seed)

	data, conn, err := LoadDataset(cfg)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	defer func() { _ = db.Close(conn) }()
	if conn == nil {
		t.Fatal("sqlite source returned no database")
	}
	if data.Len() != 1 {
		t.Errorf("Len = %d; want 1", data.Len())
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestRun_servesAndShutsDown(t *testing.T) {
	addr := freeAddr(t)
	cfg := config.Config{
		HTTPAddr:   addr,
		StaticDir:  t.TempDir(),
		ImagePath:  filepath.Join(t.TempDir(), "missing.png"),
		DataSource: config.SourceFile,
		DataPath:   writeCSV(t),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d; want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v; want context.Canceled", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_loadFailure(t *testing.T) {
	cfg := config.Config{DataSource: config.SourceFile, DataPath: filepath.Join(t.TempDir(), "nope.csv")}
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("Run() = nil; want load error")
	}
}
