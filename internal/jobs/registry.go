package jobs

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
	"github.com/google/uuid"
)

// Artifact is the finished file of a task
type Artifact struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
}

// Registry is the in-memory task table. Readers get copies; every
// mutation happens under one lock.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		tasks: make(map[string]*models.Task),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create sweeps expired tasks and inserts a fresh one in the starting state.
func (r *Registry) Create() models.Task {
	r.Sweep()

	now := r.now()
	task := &models.Task{
		ID:             uuid.NewString(),
		Status:         models.StatusStarting,
		Message:        "Queued",
		CreatedAt:      now,
		LastActivityAt: now,
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.mu.Unlock()
	return *task
}

func (r *Registry) Get(id string) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Sweep evicts finished tasks idle for longer than the TTL and removes
// their work directories. Running tasks and tasks being streamed stay.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	var dirs []string
	evicted := 0
	r.mu.Lock()
	for id, t := range r.tasks {
		if !t.Status.IsTerminal() || t.Streams > 0 || !t.LastActivityAt.Before(cutoff) {
			continue
		}
		evicted++
		if t.WorkDir != "" {
			dirs = append(dirs, t.WorkDir)
		}
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	for _, dir := range dirs {
		removeDir(dir)
	}
	return evicted
}

// Remove drops a task and its work directory. Used to roll back an admission.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	if ok && t.WorkDir != "" {
		removeDir(t.WorkDir)
	}
}

func (r *Registry) BindWorkDir(id, dir string) {
	r.update(id, func(t *models.Task) {
		t.WorkDir = dir
	})
}

// SetStage moves a running task to status. Progress never goes backwards.
func (r *Registry) SetStage(id string, status models.Status, progress int, message string) {
	r.update(id, func(t *models.Task) {
		if !t.Status.IsActive() {
			return
		}
		t.Status = status
		t.Progress = clampProgress(max(t.Progress, progress))
		if message != "" {
			t.Message = message
		}
	})
}

// UpdateProgress raises the progress of a running task and replaces its
// message when one is given.
func (r *Registry) UpdateProgress(id string, progress int, message string) {
	r.update(id, func(t *models.Task) {
		if !t.Status.IsActive() {
			return
		}
		t.Progress = clampProgress(max(t.Progress, progress))
		if message != "" {
			t.Message = message
		}
	})
}

var errNotRunning = errors.New("task is not running")

// Complete records the artifact and flips the task to done in one step.
func (r *Registry) Complete(id string, a Artifact) error {
	var err error
	found := r.update(id, func(t *models.Task) {
		if !t.Status.IsActive() || t.ResultPath != "" {
			err = errNotRunning
			return
		}
		t.Status = models.StatusDone
		t.Progress = 100
		t.Message = "Download complete"
		t.ResultPath = a.Path
		t.ResultName = a.Name
		t.ResultSize = a.Size
		t.ResultMimeType = a.MimeType
	})
	if !found {
		return ErrTaskNotFound
	}
	return err
}

func (r *Registry) Fail(id, message string) {
	r.update(id, func(t *models.Task) {
		if t.Status.IsTerminal() {
			return
		}
		t.Status = models.StatusError
		t.Message = message
		t.Error = message
	})
}

// update applies fn to the task under the lock and touches lastActivityAt.
func (r *Registry) update(id string, fn func(t *models.Task)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false
	}
	fn(t)
	t.LastActivityAt = r.now()
	return true
}

func clampProgress(p int) int {
	return min(max(p, 0), 100)
}

func removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("❌ Cleanup: could not remove %s: %v", dir, err)
	}
}
