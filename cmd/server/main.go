package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/api"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/config"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/database"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/downloader"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/jobs"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/observability"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/pool"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/ratelimit"
	"github.com/AnshuRajbanshi029/Simple-downloader/internal/server"

	"github.com/joho/godotenv"
)

const serviceName = "simple-downloader"

func main() {
	godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, serviceName, cfg.Tracing)
	if err != nil {
		log.Fatalf(">>> ❌ Error initializing tracing: %v", err)
	}

	// 1. Filesystem
	if err := server.PrepareFilesystem(cfg); err != nil {
		log.Fatalf(">>> ❌ Error preparing filesystem: %v", err)
	}

	// 2. Egress identities
	identities, err := pool.Load(cfg.ProxyFile, cfg.ProxyURLs)
	if err != nil {
		log.Fatalf(">>> ❌ Error loading proxy pool: %v", err)
	}
	identityPool := pool.New(identities)

	// 3. Daily quota
	store, closeStore, err := openLimiterStore(cfg)
	if err != nil {
		log.Fatalf(">>> ❌ Error opening rate limit store: %v", err)
	}
	defer closeStore()
	limiter, err := ratelimit.New(store, cfg.DailyDownloadLimit, ratelimit.DefaultWindow)
	if err != nil {
		log.Fatalf(">>> ❌ Error loading rate limit log: %v", err)
	}

	// 4. Jobs
	ytdlpEngine := downloader.NewYtdlpEngine(cfg.YtdlpPath, cfg.FFmpegPath)
	var engine downloader.Engine = ytdlpEngine
	if cfg.YouTubeEngine == "native" {
		engine = downloader.NewRouter(downloader.NewYouTubeEngine(cfg.FFmpegPath), ytdlpEngine)
	}

	registry := jobs.NewRegistry(cfg.TaskTTL)
	runner := jobs.NewRunner(registry, limiter, identityPool, engine, ytdlpEngine, jobs.RunnerOptions{
		TempDir:        cfg.TempDir,
		MatchTolerance: float64(cfg.MatchTolerance),
		SearchResults:  cfg.SearchResults,
	})
	manager := jobs.NewManager(registry, limiter, runner, cfg.MaxConcurrentJobs, cfg.JobQueueSize)
	manager.Start(ctx)
	jobs.StartJanitor(ctx, registry, cfg.JanitorInterval)

	// 5. HTTP
	handler := api.NewHandler(manager, registry, jobs.NewFileServer(registry, cfg.MaxFileServes), runner, identityPool.Count())
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           api.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Println(">>> 🏭 Simple Downloader Started")
	fmt.Printf(">>> ⚡ Port: %s | 🌐 Identities: %d | 🎟️ Daily limit: %d (%d left) | 🎬 Engine: %s\n",
		cfg.Port, identityPool.Count(), limiter.Limit(), limiter.Remaining(), cfg.YouTubeEngine)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf(">>> ❌ Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println(">>> 🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf(">>> ⚠️ HTTP shutdown: %v", err)
	}
	manager.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf(">>> ⚠️ Tracing shutdown: %v", err)
	}
}

// openLimiterStore picks the persistence backend for the download log
func openLimiterStore(cfg *config.Config) (ratelimit.Store, func(), error) {
	if cfg.RateLimitStore != "sqlite" {
		return ratelimit.NewFileStore(cfg.RateLimitFile), func() {}, nil
	}

	db, err := database.Open(cfg.RateLimitDB)
	if err != nil {
		return nil, nil, err
	}
	store, err := ratelimit.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
