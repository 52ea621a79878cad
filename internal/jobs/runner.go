package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/downloader"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/observability"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Quota is the admission counter shared by all jobs.
type Quota interface {
	Reserve() bool
	Release()
	Remaining() int
	Limit() int
}

// Job is one admitted download waiting for a worker
type Job struct {
	TaskID  string
	Request models.DownloadRequest
}

type RunnerOptions struct {
	TempDir        string
	MatchTolerance float64
	SearchResults  int
}

// Runner executes jobs: it walks the identity pool, drives the engine and
// finalizes the task as done or error.
type Runner struct {
	registry    *Registry
	quota       Quota
	pool        *pool.Pool
	engine      downloader.Engine
	searcher    downloader.Searcher
	tempDir     string
	tolerance   float64
	searchLimit int
}

func NewRunner(reg *Registry, quota Quota, p *pool.Pool, engine downloader.Engine, searcher downloader.Searcher, opts RunnerOptions) *Runner {
	if opts.SearchResults <= 0 {
		opts.SearchResults = downloader.DefaultSearchLimit
	}
	return &Runner{
		registry:    reg,
		quota:       quota,
		pool:        p,
		engine:      engine,
		searcher:    searcher,
		tempDir:     opts.TempDir,
		tolerance:   opts.MatchTolerance,
		searchLimit: opts.SearchResults,
	}
}

// Run processes one job to a terminal state. Failures never escape: they
// are written to the task and the quota slot is handed back.
func (r *Runner) Run(ctx context.Context, job Job) {
	ctx, span := observability.StartSpan(ctx, "job.run",
		attribute.String("task.id", job.TaskID),
		attribute.String("job.kind", string(job.Request.Kind())),
	)
	defer span.End()

	err := r.run(ctx, job)
	if err == nil {
		log.Printf("✅ Task %s finished", job.TaskID)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.registry.Fail(job.TaskID, failureMessage(err))
	r.quota.Release()
	log.Printf("❌ Task %s failed: %v", job.TaskID, err)
}

func (r *Runner) run(ctx context.Context, job Job) error {
	req := job.Request
	target := req.URL

	if req.Kind() == models.KindCrossPlatformAudio {
		r.registry.UpdateProgress(job.TaskID, 0, "Searching for a matching track...")
		match, err := r.findMatch(ctx, job.TaskID, req)
		if err != nil {
			return err
		}
		target = match.Candidate.Locator
	}

	r.registry.SetStage(job.TaskID, models.StatusDownloading, 0, "Starting download...")
	return r.download(ctx, job, target)
}

// download tries every identity of a fresh snapshot until one produces
// the artifact.
func (r *Runner) download(ctx context.Context, job Job, target string) error {
	identities := r.pool.Snapshot()

	var lastErr error
	for i, id := range identities {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("job cancelled: %w", err)
		}
		if i > 0 {
			r.registry.UpdateProgress(job.TaskID, 0, fmt.Sprintf("Retrying via another route (%d/%d)...", i+1, len(identities)))
		}

		art, err := r.attempt(ctx, job, target, id, i+1)
		if err == nil {
			r.pool.ReportSuccess(id)
			if job.Request.Kind() == models.KindCrossPlatformAudio {
				art.Name = trackFileName(job.Request, art.Path)
			}
			return r.registry.Complete(job.TaskID, art)
		}

		if ctx.Err() != nil {
			return fmt.Errorf("job cancelled: %w", ctx.Err())
		}
		r.pool.ReportFailure(id)
		lastErr = err
		log.Printf("⚠️ Task %s: attempt %d/%d via %s failed: %v", job.TaskID, i+1, len(identities), id, err)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrAllResourcesExhausted, len(identities), lastErr)
}

func (r *Runner) attempt(ctx context.Context, job Job, target string, id pool.Identity, n int) (Artifact, error) {
	ctx, span := observability.StartSpan(ctx, "job.attempt",
		attribute.String("task.id", job.TaskID),
		attribute.String("egress", id.Name),
		attribute.Int("attempt", n),
	)
	defer span.End()

	dir, err := os.MkdirTemp(r.tempDir, "task-"+job.TaskID+"-*")
	if err != nil {
		return Artifact{}, fmt.Errorf("create work dir: %w", err)
	}
	r.registry.BindWorkDir(job.TaskID, dir)

	err = r.engine.Fetch(ctx, downloader.FetchRequest{
		URL:     target,
		Kind:    job.Request.Kind(),
		Quality: job.Request.Quality,
		Format:  job.Request.Format,
		Dir:     dir,
		Proxy:   id.ProxyURL,
	}, progressHooks(r.registry, job.TaskID, job.Request.Kind()))

	var art Artifact
	if err == nil {
		art, err = locateArtifact(dir)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt failed")
		removeDir(dir)
		return Artifact{}, err
	}
	return art, nil
}

// Resolve probes a link for metadata, trying each identity in turn.
func (r *Runner) Resolve(ctx context.Context, rawURL string) (*models.MediaInfo, error) {
	ctx, span := observability.StartSpan(ctx, "resolve", attribute.String("url", rawURL))
	defer span.End()

	info, err := r.probe(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrAllResourcesExhausted, err)
	}
	return info, nil
}

func trackFileName(req models.DownloadRequest, path string) string {
	name := req.TrackTitle
	if req.TrackArtist != "" {
		name = req.TrackArtist + " - " + req.TrackTitle
	}
	return downloader.SanitizeFilename(name) + strings.ToLower(filepath.Ext(path))
}

// failureMessage is the text shown to the client for a failed job.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoMatchFound):
		return "Could not find a matching track for this song."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return downloader.FriendlyError(err)
	case errors.Is(err, ErrAllResourcesExhausted):
		return "All download attempts failed. " + downloader.FriendlyError(err)
	default:
		return downloader.FriendlyError(err)
	}
}
