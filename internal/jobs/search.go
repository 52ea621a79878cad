package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/downloader"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/matcher"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

type searchVariant struct {
	query    string
	platform downloader.Platform
	source   matcher.Source
}

// searchVariants lists the queries to try in order, from the most
// specific to the broadest.
func searchVariants(title, artist string, artists []string) []searchVariant {
	primary := artist
	if len(artists) > 0 {
		primary = artists[0]
	}
	return []searchVariant{
		{query: artist + " - " + title, platform: downloader.PlatformYouTubeMusic, source: matcher.SourceMusic},
		{query: artist + " " + title + " audio", platform: downloader.PlatformYouTube, source: matcher.SourceDefault},
		{query: title + " " + primary, platform: downloader.PlatformYouTube, source: matcher.SourceDefault},
		{query: primary + " " + title, platform: downloader.PlatformSoundCloud, source: matcher.SourceLowTrust},
	}
}

// findMatch runs the search variants until one yields an accepted
// candidate. It fails with ErrAllResourcesExhausted when no search call
// succeeded at all and with ErrNoMatchFound when searches worked but
// nothing passed scoring.
func (r *Runner) findMatch(ctx context.Context, taskID string, req models.DownloadRequest) (matcher.Result, error) {
	ctx, span := observability.StartSpan(ctx, "job.search",
		attribute.String("task.id", taskID),
		attribute.String("track.title", req.TrackTitle),
	)
	defer span.End()

	target := matcher.Target{
		Title:           req.TrackTitle,
		Artists:         req.Artists(),
		DurationSeconds: float64(req.DurationMs) / 1000,
	}
	variants := searchVariants(req.TrackTitle, req.TrackArtist, target.Artists)

	succeeded := 0
	var lastErr error
	for i, v := range variants {
		r.registry.UpdateProgress(taskID, 0, fmt.Sprintf("Searching for a match (%d/%d)...", i+1, len(variants)))

		results, err := r.search(ctx, v)
		if err != nil {
			if ctx.Err() != nil {
				return matcher.Result{}, ctx.Err()
			}
			lastErr = err
			log.Printf("⚠️ Task %s: search %q on %s failed: %v", taskID, v.query, v.platform, err)
			continue
		}
		succeeded++

		candidates := r.candidates(ctx, results, v.source)
		if best, ok := matcher.Best(target, candidates, r.tolerance); ok {
			log.Printf("🎯 Task %s: matched %q (score %.2f, %.0fs off)", taskID, best.Candidate.Title, best.Score, best.DurationDiff)
			span.SetAttributes(attribute.Float64("match.score", best.Score))
			return best, nil
		}
	}

	if succeeded == 0 {
		if lastErr == nil {
			lastErr = errors.New("no search backend")
		}
		return matcher.Result{}, fmt.Errorf("%w: every search failed: %w", ErrAllResourcesExhausted, lastErr)
	}
	return matcher.Result{}, ErrNoMatchFound
}

// search runs one query, trying each pool identity until one answers.
func (r *Runner) search(ctx context.Context, v searchVariant) ([]models.MediaInfo, error) {
	if r.searcher == nil {
		return nil, errors.New("no search backend configured")
	}
	var lastErr error
	for _, id := range r.pool.Snapshot() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results, err := r.searcher.Search(ctx, downloader.Query{
			Text:     v.query,
			Platform: v.platform,
			Limit:    r.searchLimit,
		}, id.ProxyURL)
		if err == nil {
			r.pool.ReportSuccess(id)
			return results, nil
		}
		r.pool.ReportFailure(id)
		lastErr = err
	}
	return nil, lastErr
}

// candidates turns search results into scoring input. Results missing a
// title or duration are probed for full metadata first.
func (r *Runner) candidates(ctx context.Context, results []models.MediaInfo, source matcher.Source) []matcher.Candidate {
	out := make([]matcher.Candidate, 0, len(results))
	for _, res := range results {
		if res.WebpageURL == "" {
			continue
		}
		if res.Title == "" || res.Duration <= 0 {
			if full, err := r.probe(ctx, res.WebpageURL); err == nil {
				res = mergeInfo(res, *full)
			}
		}
		out = append(out, matcher.Candidate{
			Title:    res.Title,
			Uploader: strings.TrimSpace(res.Uploader + " " + strings.Join(res.Artists, " ")),
			Duration: res.Duration,
			Source:   source,
			Locator:  res.WebpageURL,
		})
	}
	return out
}

func (r *Runner) probe(ctx context.Context, rawURL string) (*models.MediaInfo, error) {
	var lastErr error
	for _, id := range r.pool.Snapshot() {
		info, err := r.engine.Probe(ctx, rawURL, id.ProxyURL)
		if err == nil {
			r.pool.ReportSuccess(id)
			return info, nil
		}
		r.pool.ReportFailure(id)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func mergeInfo(thin, full models.MediaInfo) models.MediaInfo {
	if thin.Title == "" {
		thin.Title = full.Title
	}
	if thin.Uploader == "" {
		thin.Uploader = full.Uploader
	}
	if len(thin.Artists) == 0 {
		thin.Artists = full.Artists
	}
	if thin.Duration <= 0 {
		thin.Duration = full.Duration
	}
	return thin
}
