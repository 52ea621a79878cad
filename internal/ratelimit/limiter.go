package ratelimit

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultWindow is the trailing duration a quota slot stays charged.
const DefaultWindow = 24 * time.Hour

// Store persists the admission log. Save must replace the stored log
// atomically: a failed Save leaves the previous log intact.
type Store interface {
	Load() ([]int64, error)
	Save(entries []int64) error
}

// Limiter is a sliding-window admission counter shared by all jobs.
// Every prune, check, append and persist sequence runs under one lock.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	log    []int64
	store  Store
	now    func() time.Time
}

// New loads the persisted log from store and returns a limiter admitting
// at most limit reservations per window. A nil store keeps the log in memory.
func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if limit < 0 {
		limit = 0
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		limit:  limit,
		window: window,
		store:  store,
		now:    time.Now,
	}
	if store != nil {
		entries, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load rate limit log: %w", err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
		l.log = entries
	}
	l.mu.Lock()
	l.prune()
	l.mu.Unlock()
	return l, nil
}

// Limit returns the configured quota.
func (l *Limiter) Limit() int {
	return l.limit
}

// Remaining returns how many reservations are still available in the window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.prune() {
		l.persist()
	}
	if n := l.limit - len(l.log); n > 0 {
		return n
	}
	return 0
}

// Reserve charges one quota slot. It returns false when the window is full.
func (l *Limiter) Reserve() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := l.prune()
	if len(l.log) >= l.limit {
		if pruned {
			l.persist()
		}
		return false
	}
	l.log = append(l.log, l.now().UTC().Unix())
	l.persist()
	return true
}

// Release returns the most recent reservation to the pool. It compensates
// a job that failed after admission and is a no-op on an empty log.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	if len(l.log) == 0 {
		return
	}
	l.log = l.log[:len(l.log)-1]
	l.persist()
}

// prune drops entries older than now-window and reports whether any were dropped.
// Caller must hold mu.
func (l *Limiter) prune() bool {
	cutoff := l.now().UTC().Add(-l.window).Unix()
	trimmed := trimCutoff(l.log, cutoff)
	changed := len(trimmed) != len(l.log)
	l.log = trimmed
	return changed
}

// persist writes the log through the store. A failed write keeps the
// in-memory decision; the store guarantees the old log survives.
func (l *Limiter) persist() {
	if l.store == nil {
		return
	}
	snapshot := make([]int64, len(l.log))
	copy(snapshot, l.log)
	if err := l.store.Save(snapshot); err != nil {
		log.Printf("⚠️ Rate limiter: could not persist log: %v", err)
	}
}

func trimCutoff(in []int64, cutoff int64) []int64 {
	if len(in) == 0 {
		return in
	}
	i := 0
	for i < len(in) && in[i] < cutoff {
		i++
	}
	if i == 0 {
		return in
	}
	out := make([]int64, len(in)-i)
	copy(out, in[i:])
	return out
}
