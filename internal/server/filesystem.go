package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/config"
)

// PrepareFilesystem creates the data and temp directories and clears task
// directories left behind by a previous run. Tasks are not persisted, so
// nothing can reference them anymore.
func PrepareFilesystem(cfg *config.Config) error {
	dirs := []string{cfg.DataDir, cfg.TempDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(cfg.TempDir)
	if err != nil {
		return err
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "task-") {
			continue
		}
		if err := os.RemoveAll(filepath.Join(cfg.TempDir, e.Name())); err != nil {
			log.Printf("⚠️ Could not remove stale task dir %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d stale task directories", removed)
	}
	return nil
}
