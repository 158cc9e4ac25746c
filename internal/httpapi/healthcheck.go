package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"airwatch-server/internal/utils"
)

// Snapshot is the loaded dataset as seen by the health check.
type Snapshot interface {
	Len() int
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db   *sql.DB
	data Snapshot
}

// NewHealthchecker reports the number of loaded readings. db is nil when the
// dataset came from a file; otherwise its connectivity is checked too.
func NewHealthchecker(db *sql.DB, data Snapshot) healthchecker {
	return &healthcheckerImpl{db: db, data: data}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		var ok int
		if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
			slog.Error("failed to check database connectivity", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "readings": h.data.Len()})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, data Snapshot) {
	healthchecker := NewHealthchecker(db, data)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
