package jobs

import (
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
)

// DefaultMaxServes is how many times a finished file may be downloaded
const DefaultMaxServes = 3

// FileServer hands out finished artifacts a bounded number of times.
type FileServer struct {
	registry  *Registry
	maxServes int
}

func NewFileServer(reg *Registry, maxServes int) *FileServer {
	if maxServes < 1 {
		maxServes = DefaultMaxServes
	}
	return &FileServer{registry: reg, maxServes: maxServes}
}

// Serve claims one delivery of the task's artifact. Every successful call
// must be paired with Finish once the stream ends.
func (f *FileServer) Serve(id string) (Artifact, error) {
	r := f.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := f.servable(id)
	if err != nil {
		return Artifact{}, err
	}

	t.ServeCount++
	t.Streams++
	t.Status = models.StatusServed
	t.LastActivityAt = r.now()
	return artifactOf(t), nil
}

// Peek reports what Serve would return without claiming a delivery
func (f *FileServer) Peek(id string) (Artifact, error) {
	r := f.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := f.servable(id)
	if err != nil {
		return Artifact{}, err
	}
	return artifactOf(t), nil
}

// servable must be called with the registry lock held
func (f *FileServer) servable(id string) (*models.Task, error) {
	t, ok := f.registry.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if !t.Status.IsServable() {
		return nil, ErrNotReady
	}
	if t.ServeCount >= f.maxServes || t.ResultPath == "" {
		return nil, ErrResultExpired
	}
	return t, nil
}

func artifactOf(t *models.Task) Artifact {
	return Artifact{
		Path:     t.ResultPath,
		Name:     t.ResultName,
		Size:     t.ResultSize,
		MimeType: t.ResultMimeType,
	}
}

// Finish ends a delivery. Once the cap is reached and no stream is left
// the artifact directory is deleted; the task stays as an expired entry
// until the sweep evicts it.
func (f *FileServer) Finish(id string) {
	r := f.registry
	var dir string

	r.mu.Lock()
	if t, ok := r.tasks[id]; ok {
		if t.Streams > 0 {
			t.Streams--
		}
		t.LastActivityAt = r.now()
		if t.ServeCount >= f.maxServes && t.Streams == 0 {
			dir = t.WorkDir
			t.WorkDir = ""
		}
	}
	r.mu.Unlock()

	if dir != "" {
		removeDir(dir)
	}
}
