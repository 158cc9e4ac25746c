package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"

	"airwatch-server/internal/migrate"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu    sync.Mutex
	attrs []map[string]slog.Value
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := map[string]slog.Value{"msg": slog.StringValue(r.Message)}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.attrs = append(h.attrs, m)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) last(t *testing.T, msg string) map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.attrs) - 1; i >= 0; i-- {
		if h.attrs[i]["msg"].String() == msg {
			return h.attrs[i]
		}
	}
	t.Fatalf("no %q record logged", msg)
	return nil
}

func openLogged(t *testing.T) (*sql.DB, *captureHandler) {
	t.Helper()
	handler := &captureHandler{}
	connector, err := NewLoggingConnector(":memory:", slog.New(handler))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, handler
}

func TestNewLoggingConnector_nilLoggerUsesDefault(t *testing.T) {
	conn, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	if conn.(*loggingConnector).logger == nil {
		t.Fatal("logger is nil")
	}
}

func TestLoggingConnector_execAndQuery(t *testing.T) {
	db, handler := openLogged(t)

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, pm25 REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	got := handler.last(t, "sql")
	if got["op"].String() != "exec" {
		t.Errorf("op = %q, want exec", got["op"].String())
	}

	if _, err := db.Exec(`INSERT INTO t (id, pm25) VALUES (?, ?)`, 1, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got = handler.last(t, "sql")
	args, ok := got["args"].Any().([]string)
	if !ok || len(args) != 2 || args[0] != "1" || args[1] != "NULL" {
		t.Errorf("args = %v, want [1 NULL]", got["args"].Any())
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*)\nFROM t\nWHERE id = ?", 1).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	got = handler.last(t, "sql")
	if got["op"].String() != "query" {
		t.Errorf("op = %q, want query", got["op"].String())
	}
	if got["sql"].String() != "SELECT COUNT(*) FROM t WHERE id = ?" {
		t.Errorf("sql = %q, want single-line statement", got["sql"].String())
	}
	if _, ok := got["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
}

func TestLoggingConnector_preparedInTx(t *testing.T) {
	db, handler := openLogged(t)
	if _, err := db.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO t (id) VALUES (?)`)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := stmt.Exec(i); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := handler.last(t, "sql")
	if got["sql"].String() != `INSERT INTO t (id) VALUES (?)` {
		t.Errorf("sql = %q", got["sql"].String())
	}
	handler.last(t, "sql begin")
}

func TestLoggingConnector_errorLogged(t *testing.T) {
	db, handler := openLogged(t)

	if _, err := db.Exec(`INSERT INTO missing VALUES (1)`); err == nil {
		t.Fatal("exec on missing table succeeded")
	}
	got := handler.last(t, "sql")
	if _, ok := got["error"]; !ok {
		t.Error("error attribute missing")
	}
}

func TestLoggingConnector_runsMigrations(t *testing.T) {
	db, _ := openLogged(t)

	if err := migrate.Run(db); err != nil {
		t.Fatalf("migrate.Run: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO stations (name) VALUES ('Wanliu')`); err != nil {
		t.Fatalf("insert station: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("stations = %d, want 1", n)
	}
}

func TestLoggingDriver_openUnsupported(t *testing.T) {
	if _, err := (&loggingDriver{}).Open(":memory:"); err == nil {
		t.Error("Open succeeded, want error")
	}
}
