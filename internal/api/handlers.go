package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/downloader"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/jobs"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
)

const (
	eventInterval  = 500 * time.Millisecond
	maxRequestBody = 64 << 10
)

type Handler struct {
	Manager  *jobs.Manager
	Registry *jobs.Registry
	Files    *jobs.FileServer
	Runner   *jobs.Runner
	PoolSize int
}

func NewHandler(m *jobs.Manager, reg *jobs.Registry, files *jobs.FileServer, runner *jobs.Runner, poolSize int) *Handler {
	return &Handler{Manager: m, Registry: reg, Files: files, Runner: runner, PoolSize: poolSize}
}

// StartDownload admits a new download task
func (h *Handler) StartDownload(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Normalize()
	if msg := req.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	task, err := h.Manager.Submit(req)
	switch {
	case errors.Is(err, jobs.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "Daily download limit reached. Please try again later.")
		return
	case errors.Is(err, jobs.ErrServerBusy):
		writeError(w, http.StatusServiceUnavailable, "Server is busy. Please try again shortly.")
		return
	case err != nil:
		log.Printf("❌ Submit failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not start download")
		return
	}

	log.Printf("📥 Task %s queued (%s)", task.ID, req.Kind())
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": task.ID})
}

// Progress returns the polling payload of a task
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	task, ok := h.Registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task.View())
}

// Events streams the progress payload until the task ends
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)
	ticker := time.NewTicker(eventInterval)
	defer ticker.Stop()

	for {
		task, ok := h.Registry.Get(id)
		if !ok {
			fmt.Fprintf(w, "event: error\ndata: Task not found\n\n")
			rc.Flush()
			return
		}
		data, _ := json.Marshal(task.View())
		fmt.Fprintf(w, "data: %s\n\n", data)
		rc.Flush()

		if task.Status.IsTerminal() {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// DownloadFile streams the finished artifact. HEAD answers from the task
// state and does not count as a delivery.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if r.Method == http.MethodHead {
		art, err := h.Files.Peek(id)
		if err != nil {
			writeServeError(w, err)
			return
		}
		setFileHeaders(w, art)
		w.Header().Set("Content-Length", strconv.FormatInt(art.Size, 10))
		w.WriteHeader(http.StatusOK)
		return
	}

	art, err := h.Files.Serve(id)
	if err != nil {
		writeServeError(w, err)
		return
	}
	defer h.Files.Finish(id)

	f, err := os.Open(art.Path)
	if err != nil {
		log.Printf("❌ Task %s: artifact unreadable: %v", id, err)
		writeError(w, http.StatusGone, "This download link has expired")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not serve file")
		return
	}

	setFileHeaders(w, art)
	http.ServeContent(w, r, art.Name, stat.ModTime(), f)
}

func setFileHeaders(w http.ResponseWriter, art jobs.Artifact) {
	w.Header().Set("Content-Disposition", contentDisposition(art.Name))
	w.Header().Set("Content-Type", art.MimeType)
	w.Header().Set("Cache-Control", "no-store")
}

func writeServeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, jobs.ErrNotReady):
		writeError(w, http.StatusConflict, "File is not ready yet")
	case errors.Is(err, jobs.ErrResultExpired):
		writeError(w, http.StatusGone, "This download link has expired")
	default:
		writeError(w, http.StatusInternalServerError, "Could not serve file")
	}
}

// Remaining reports the quota left in the current window
func (h *Handler) Remaining(w http.ResponseWriter, r *http.Request) {
	remaining, limit := h.Manager.Remaining()
	writeJSON(w, http.StatusOK, map[string]int{"remaining": remaining, "limit": limit})
}

// Resolve returns metadata for a link without downloading it
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if !models.IsHTTPURL(req.URL) {
		writeError(w, http.StatusBadRequest, "A valid http(s) url is required")
		return
	}

	info, err := h.Runner.Resolve(r.Context(), req.URL)
	if err != nil {
		log.Printf("⚠️ Resolve failed: %v", err)
		writeError(w, http.StatusBadGateway, downloader.FriendlyError(err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pool": h.PoolSize})
}

// contentDisposition builds an attachment header that survives non-ASCII names
func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
