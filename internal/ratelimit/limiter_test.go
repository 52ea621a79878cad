package ratelimit

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/database"
)

func newTestLimiter(t *testing.T, store Store, limit int) (*Limiter, *time.Time) {
	t.Helper()
	l, err := New(store, limit, DefaultWindow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestReserve_ConcurrentCallsNeverExceedLimit(t *testing.T) {
	l, _ := newTestLimiter(t, nil, 2)

	var granted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Reserve() {
				granted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := granted.Load(); got != 2 {
		t.Errorf("expected exactly 2 reservations, got %d", got)
	}
	if r := l.Remaining(); r != 0 {
		t.Errorf("expected 0 remaining, got %d", r)
	}
}

func TestReserve_ManyConcurrentCalls(t *testing.T) {
	l, _ := newTestLimiter(t, NewFileStore(filepath.Join(t.TempDir(), "log.json")), 25)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Reserve() {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 25 {
		t.Errorf("expected 25 reservations, got %d", got)
	}
}

func TestRelease_ReturnsSlot(t *testing.T) {
	l, _ := newTestLimiter(t, nil, 1)

	if !l.Reserve() {
		t.Fatal("expected first reservation to succeed")
	}
	if l.Reserve() {
		t.Fatal("expected second reservation to fail")
	}
	l.Release()
	if l.Remaining() != 1 {
		t.Errorf("expected slot returned, remaining=%d", l.Remaining())
	}
	if !l.Reserve() {
		t.Error("expected reservation after release to succeed")
	}

	empty, _ := newTestLimiter(t, nil, 1)
	empty.Release()
	if empty.Remaining() != 1 {
		t.Errorf("expected release on empty log to be a no-op")
	}
}

func TestPrune_WindowSlides(t *testing.T) {
	l, now := newTestLimiter(t, nil, 2)

	l.Reserve()
	*now = now.Add(12 * time.Hour)
	l.Reserve()
	if l.Remaining() != 0 {
		t.Fatalf("expected quota exhausted")
	}

	*now = now.Add(12*time.Hour + time.Second)
	if r := l.Remaining(); r != 1 {
		t.Errorf("expected oldest entry to age out, remaining=%d", r)
	}

	*now = now.Add(24 * time.Hour)
	if r := l.Remaining(); r != 2 {
		t.Errorf("expected full quota, remaining=%d", r)
	}
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "rate_limit.json")
	store := NewFileStore(path)

	l, err := New(store, 3, DefaultWindow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Reserve()
	l.Reserve()

	reloaded, err := New(NewFileStore(path), 3, DefaultWindow)
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	if r := reloaded.Remaining(); r != 1 {
		t.Errorf("expected 1 remaining after restart, got %d", r)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the log file in the directory, got %d entries", len(entries))
	}
}

func TestFileStore_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	entries, err := NewFileStore(filepath.Join(dir, "missing.json")).Load()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty log for missing file, got %v %v", entries, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("[1, 2,"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := New(NewFileStore(bad), 3, DefaultWindow); err == nil {
		t.Error("expected error for corrupt log")
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	want := []int64{time.Now().Unix() - 10, time.Now().Unix() - 5, time.Now().Unix()}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(want[1:]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0] != want[1] || got[1] != want[2] {
		t.Errorf("expected %v, got %v", want[1:], got)
	}

	l, err := New(store, 5, DefaultWindow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r := l.Remaining(); r != 3 {
		t.Errorf("expected 3 remaining, got %d", r)
	}
}

type failingStore struct {
	saves int
}

func (s *failingStore) Load() ([]int64, error) { return nil, nil }

func (s *failingStore) Save([]int64) error {
	s.saves++
	return errors.New("disk full")
}

func TestPersistFailureIsNonFatal(t *testing.T) {
	store := &failingStore{}
	l, _ := newTestLimiter(t, store, 1)

	if !l.Reserve() {
		t.Fatal("expected reservation despite persistence failure")
	}
	if l.Reserve() {
		t.Error("expected in-memory log to still enforce the limit")
	}
	if store.saves == 0 {
		t.Error("expected a persistence attempt")
	}
}
