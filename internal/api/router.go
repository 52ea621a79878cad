package api

import (
	"net/http"
)

// NewRouter setup routes and apply global middleware
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /download_start", h.StartDownload)
	mux.HandleFunc("GET /download_progress/{id}", h.Progress)
	mux.HandleFunc("GET /download_events/{id}", h.Events)
	mux.HandleFunc("GET /download_file/{id}", h.DownloadFile)
	mux.HandleFunc("GET /downloads_remaining", h.Remaining)
	mux.HandleFunc("POST /api/resolve", h.Resolve)
	mux.HandleFunc("GET /healthz", h.Health)

	// CORS runs first so preflight requests never reach the mux
	return CORSMiddleware(allowedOrigins)(withLogging(withTracing(mux)))
}
