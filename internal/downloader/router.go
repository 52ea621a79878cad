package downloader

import (
	"context"
	"net/url"
	"strings"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
)

// Router sends YouTube links to a dedicated engine and everything else
// to the fallback. With no YouTube engine every link goes to the fallback.
type Router struct {
	youtube  Engine
	fallback Engine
}

func NewRouter(youtube, fallback Engine) *Router {
	return &Router{youtube: youtube, fallback: fallback}
}

func (r *Router) pick(rawURL string) Engine {
	if r.youtube != nil && IsYouTubeURL(rawURL) {
		return r.youtube
	}
	return r.fallback
}

func (r *Router) Probe(ctx context.Context, rawURL, proxy string) (*models.MediaInfo, error) {
	return r.pick(rawURL).Probe(ctx, rawURL, proxy)
}

func (r *Router) Fetch(ctx context.Context, req FetchRequest, hooks Hooks) error {
	return r.pick(req.URL).Fetch(ctx, req, hooks)
}

// IsYouTubeURL reports whether the link points at youtube.com or youtu.be
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}
