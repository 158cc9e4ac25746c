package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}

// WriteBody renders src into memory first, so a failing renderer still gets a
// clean 500 instead of a truncated 200. A non-empty filename makes the
// response a download.
func WriteBody(w http.ResponseWriter, contentType, filename string, src io.WriterTo) {
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		slog.Error("failed to render response body", "contentType", contentType, "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to render "+contentType)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write response body", "error", err)
	}
}
