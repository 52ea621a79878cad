package jobs

import (
	"context"
	"log"
	"sync"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
)

// Manager admits download requests and runs them on a fixed set of
// workers fed by a bounded queue.
type Manager struct {
	registry *Registry
	quota    Quota
	runner   *Runner
	workers  int
	queue    chan Job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewManager(reg *Registry, quota Quota, runner *Runner, workers, queueSize int) *Manager {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Manager{
		registry: reg,
		quota:    quota,
		runner:   runner,
		workers:  workers,
		queue:    make(chan Job, queueSize),
	}
}

// Start launches the workers. Cancelling ctx aborts running jobs.
func (m *Manager) Start(ctx context.Context) {
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for job := range m.queue {
				m.runner.Run(ctx, job)
			}
		}()
	}
	log.Printf("👷 Job manager: %d workers, queue size %d", m.workers, cap(m.queue))
}

// Submit charges the quota, creates the task and queues the job. When the
// queue is full both the task and the reservation are rolled back.
func (m *Manager) Submit(req models.DownloadRequest) (models.Task, error) {
	if !m.quota.Reserve() {
		return models.Task{}, ErrQuotaExceeded
	}
	task := m.registry.Create()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.closed {
		select {
		case m.queue <- Job{TaskID: task.ID, Request: req}:
			return task, nil
		default:
		}
	}

	m.registry.Remove(task.ID)
	m.quota.Release()
	return models.Task{}, ErrServerBusy
}

// Remaining reports the quota left in the current window.
func (m *Manager) Remaining() (remaining, limit int) {
	return m.quota.Remaining(), m.quota.Limit()
}

// Close stops accepting jobs and waits for queued ones to drain.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}
