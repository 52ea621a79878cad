package jobs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/downloader"
)

var partialSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, ".part-frag") {
		return true
	}
	for _, s := range partialSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// locateArtifact picks the largest finished file in dir, ignoring
// in-progress and intermediate files left by the engine.
func locateArtifact(dir string) (Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Artifact{}, err
	}

	var best Artifact
	for _, e := range entries {
		if e.IsDir() || isPartial(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		if info.Size() > best.Size {
			best = Artifact{Path: filepath.Join(dir, e.Name()), Size: info.Size()}
		}
	}
	if best.Path == "" {
		return Artifact{}, ErrArtifactMissing
	}

	ext := strings.ToLower(filepath.Ext(best.Path))
	best.Name = downloader.SanitizeFilename(strings.TrimSuffix(filepath.Base(best.Path), filepath.Ext(best.Path))) + ext
	best.MimeType = downloader.MimeType(best.Path)
	return best, nil
}
