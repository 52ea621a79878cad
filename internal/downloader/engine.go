package downloader

import (
	"context"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
)

// Engine extracts metadata and downloads media. Proxy is the egress
// proxy URL for the call, "" for a direct connection.
type Engine interface {
	Probe(ctx context.Context, url, proxy string) (*models.MediaInfo, error)
	Fetch(ctx context.Context, req FetchRequest, hooks Hooks) error
}

// Searcher runs a free text search on one platform.
type Searcher interface {
	Search(ctx context.Context, q Query, proxy string) ([]models.MediaInfo, error)
}

// FetchRequest describes one download attempt. The engine writes its
// output (and any intermediate files) into Dir.
type FetchRequest struct {
	URL     string
	Kind    models.Kind
	Quality string
	Format  string
	Dir     string
	Proxy   string
}

// Hooks receive progress from a running fetch. Transfer is called with
// the 1-based transfer phase (video then audio for a merged download).
// PostProcess is called with false when muxing or transcoding starts and
// with true once it finished.
type Hooks struct {
	Transfer    func(phase int, done, total int64)
	PostProcess func(finished bool)
}

func (h Hooks) transfer(phase int, done, total int64) {
	if h.Transfer != nil {
		h.Transfer(phase, done, total)
	}
}

func (h Hooks) postProcess(finished bool) {
	if h.PostProcess != nil {
		h.PostProcess(finished)
	}
}

// Platform picks the search backend
type Platform string

const (
	PlatformYouTube      Platform = "youtube"
	PlatformYouTubeMusic Platform = "ytmusic"
	PlatformSoundCloud   Platform = "soundcloud"
)

type Query struct {
	Text     string
	Platform Platform
	Limit    int
}
