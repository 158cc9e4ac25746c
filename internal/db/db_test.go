package db

import (
	"path/filepath"
	"strings"
	"testing"

	"airwatch-server/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Config{SQLiteDSN: "file::memory:?cache=shared", SQLitePath: "ignored.db"},
			want: "file::memory:?cache=shared",
		},
		{
			name: "plain path",
			cfg:  config.Config{SQLitePath: filepath.Join(dir, "aq.db")},
			want: "file:" + filepath.Join(dir, "aq.db") + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "file uri with params",
			cfg:  config.Config{SQLitePath: "file:" + filepath.Join(dir, "aq.db") + "?mode=ro"},
			want: "file:" + filepath.Join(dir, "aq.db") + "?mode=ro&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			if err != nil {
				t.Fatalf("buildDSN: %v", err)
			}
			if got != tt.want {
				t.Errorf("buildDSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_createsDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.db")
	cfg := config.Config{SQLiteDriver: "sqlite3", SQLitePath: path, SQLiteMaxOpenConns: 1, SQLiteMaxIdleConns: 1}

	conn, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		if err := Close(conn); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()

	var fk int
	if err := conn.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpen_loggingConnector(t *testing.T) {
	cfg := config.Config{SQLiteDSN: ":memory:", SQLiteLogStatements: true, SQLiteMaxOpenConns: 1}

	conn, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = Close(conn) }()

	if _, ok := conn.Driver().(*loggingDriver); !ok {
		t.Errorf("driver = %T, want *loggingDriver", conn.Driver())
	}
}

func TestClose_nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) = %v", err)
	}
}

func TestOpen_badDriver(t *testing.T) {
	_, err := Open(config.Config{SQLiteDriver: "nope", SQLiteDSN: ":memory:"})
	if err == nil || !strings.Contains(err.Error(), "db open") {
		t.Errorf("Open = %v, want db open error", err)
	}
}
