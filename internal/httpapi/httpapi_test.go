package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"airwatch-server/internal/config"
)

type fakeSnapshot int

func (f fakeSnapshot) Len() int { return int(f) }

func newTestServer(t *testing.T, db *sql.DB, staticDir string, image []byte) *httptest.Server {
	t.Helper()
	srv := NewServer(config.Config{HTTPAddr: ":0"}, NewMux(db, fakeSnapshot(3), staticDir, image))
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func mustGet(t *testing.T, client *http.Client, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestHealthz(t *testing.T) {
	t.Run("file source", func(t *testing.T) {
		ts := newTestServer(t, nil, "", nil)
		resp, body := mustGet(t, ts.Client(), ts.URL+"/healthz")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d; want 200", resp.StatusCode)
		}
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["status"] != "ok" || got["readings"] != float64(3) {
			t.Errorf("body = %v", got)
		}
	})

	t.Run("sqlite source", func(t *testing.T) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		ts := newTestServer(t, db, "", nil)

		resp, _ := mustGet(t, ts.Client(), ts.URL+"/healthz")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d; want 200", resp.StatusCode)
		}

		_ = db.Close()
		resp, _ = mustGet(t, ts.Client(), ts.URL+"/healthz")
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status after close = %d; want 500", resp.StatusCode)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		ts := newTestServer(t, nil, "", nil)
		resp, err := ts.Client().Post(ts.URL+"/healthz", "application/json", nil)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d; want 405", resp.StatusCode)
		}
	})
}

func TestStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	image := []byte("\x89PNG\r\n\x1a\nfake")
	ts := newTestServer(t, nil, dir, image)

	resp, body := mustGet(t, ts.Client(), ts.URL+"/static/style.css")
	if resp.StatusCode != http.StatusOK || string(body) != "body{}" {
		t.Errorf("style.css = %d %q", resp.StatusCode, body)
	}

	resp, body = mustGet(t, ts.Client(), ts.URL+ImagePath)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(body, image) {
		t.Errorf("image = %d %q", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("image Content-Type = %q; want image/png", got)
	}

	resp, _ = mustGet(t, ts.Client(), ts.URL+"/static/missing.js")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing = %d; want 404", resp.StatusCode)
	}
}

func TestStatic_noImage(t *testing.T) {
	ts := newTestServer(t, nil, t.TempDir(), nil)
	resp, _ := mustGet(t, ts.Client(), ts.URL+ImagePath)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d; want 404", resp.StatusCode)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/api/summary?start=2016-01-01", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "http request" || rec["path"] != "/api/summary" || rec["query"] != "start=2016-01-01" {
		t.Errorf("record = %v", rec)
	}
	if rec["status"] != float64(http.StatusTeapot) || rec["bytes"] != float64(len("short and stout")) {
		t.Errorf("status/bytes = %v/%v", rec["status"], rec["bytes"])
	}
	if !strings.Contains(buf.String(), "duration_ms") {
		t.Error("duration_ms missing")
	}
}
