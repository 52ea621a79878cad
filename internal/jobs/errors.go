package jobs

import "errors"

var (
	// ErrQuotaExceeded means admission was denied and nothing was consumed.
	ErrQuotaExceeded = errors.New("daily download limit reached")
	// ErrServerBusy means the job queue is full; the reservation was rolled back.
	ErrServerBusy = errors.New("server busy")

	ErrAllResourcesExhausted = errors.New("all download routes exhausted")
	ErrNoMatchFound          = errors.New("no matching track found")
	// ErrArtifactMissing means the engine reported success without leaving a file.
	ErrArtifactMissing = errors.New("download produced no file")

	ErrTaskNotFound  = errors.New("task not found")
	ErrNotReady      = errors.New("file not ready")
	ErrResultExpired = errors.New("download link expired")
)
