package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns the base mux with /healthz and the static assets. Feature
// modules register their own routes on it.
func NewMux(db *sql.DB, data Snapshot, staticDir string, image []byte) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, data)
	registerStatic(mux, staticDir, image)
	return mux
}
