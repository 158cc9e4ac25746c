package httpapi

import (
	"bytes"
	"net/http"
	"time"
)

// ImagePath is where the sidebar illustration is served.
const ImagePath = "/static/air-quality.png"

func registerStatic(mux *http.ServeMux, staticDir string, image []byte) {
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	if image == nil {
		return
	}
	loaded := time.Now()
	mux.HandleFunc("GET "+ImagePath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeContent(w, r, "air-quality.png", loaded, bytes.NewReader(image))
	})
}
