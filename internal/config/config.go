package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/observability"
)

// Config holds all server settings in correct types
type Config struct {
	Port    string
	TempDir string
	DataDir string

	DailyDownloadLimit int
	RateLimitStore     string
	RateLimitFile      string
	RateLimitDB        string

	ProxyFile string
	ProxyURLs string

	TaskTTL         time.Duration
	JanitorInterval time.Duration
	MaxFileServes   int

	MatchTolerance int
	SearchResults  int

	MaxConcurrentJobs int
	JobQueueSize      int

	YtdlpPath     string
	FFmpegPath    string
	YouTubeEngine string

	AllowedOrigins []string

	Tracing observability.TracingConfig
}

// Load: The only way to get config in the app
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	cfg := &Config{
		Port:    getEnv("PORT", ":8080"),
		TempDir: getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "simple-downloader")),
		DataDir: dataDir,

		DailyDownloadLimit: getEnvAsInt("DAILY_DOWNLOAD_LIMIT", 100),
		RateLimitStore:     strings.ToLower(getEnv("RATE_LIMIT_STORE", "file")),
		RateLimitFile:      getEnv("RATE_LIMIT_FILE", filepath.Join(dataDir, "rate_limit.json")),
		RateLimitDB:        getEnv("RATE_LIMIT_DB", filepath.Join(dataDir, "downloader.db")),

		ProxyFile: getEnv("PROXY_FILE", ""),
		ProxyURLs: getEnv("PROXY_URLS", ""),

		TaskTTL:         time.Duration(getEnvAsInt("TASK_TTL_MINUTES", 30)) * time.Minute,
		JanitorInterval: time.Duration(getEnvAsInt("JANITOR_INTERVAL_MINUTES", 5)) * time.Minute,
		MaxFileServes:   getEnvAsInt("MAX_FILE_SERVES", 3),

		MatchTolerance: getEnvAsInt("MATCH_TOLERANCE_SECONDS", 5),
		SearchResults:  getEnvAsInt("SEARCH_RESULTS", 8),

		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 3),
		JobQueueSize:      getEnvAsInt("JOB_QUEUE_SIZE", 32),

		YtdlpPath:     getEnv("YTDLP_PATH", ""),
		FFmpegPath:    getEnv("FFMPEG_PATH", ""),
		YouTubeEngine: strings.ToLower(getEnv("YOUTUBE_ENGINE", "ytdlp")),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),

		Tracing: observability.TracingConfig{
			Exporter: getEnv("OTEL_EXPORTER", "none"),
			Endpoint: getEnv("OTEL_ENDPOINT", ""),
			Headers:  getEnv("OTEL_HEADERS", ""),
			Insecure: getEnvAsBool("OTEL_INSECURE", false),
		},
	}

	// 🛡️ Post-load Validation
	validate(cfg)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	str := getEnv(key, "")
	if val, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	str := getEnv(key, "")
	if val, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
		return val
	}
	return fallback
}

// getEnvAsList splits a comma separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validate ensures the server won't crash due to misconfiguration
func validate(cfg *Config) {
	if cfg.MaxConcurrentJobs < 1 {
		log.Println("⚠️ Warning: MAX_CONCURRENT_JOBS must be at least 1. Resetting to 3.")
		cfg.MaxConcurrentJobs = 3
	}
	if cfg.JobQueueSize < 1 {
		log.Println("⚠️ Warning: JOB_QUEUE_SIZE must be at least 1. Resetting to 32.")
		cfg.JobQueueSize = 32
	}
	if cfg.DailyDownloadLimit < 1 {
		log.Println("⚠️ Warning: DAILY_DOWNLOAD_LIMIT must be at least 1. Resetting to 100.")
		cfg.DailyDownloadLimit = 100
	}
	if cfg.TaskTTL <= 0 {
		log.Println("⚠️ Warning: TASK_TTL_MINUTES must be positive. Resetting to 30.")
		cfg.TaskTTL = 30 * time.Minute
	}
	if cfg.JanitorInterval <= 0 {
		log.Println("⚠️ Warning: JANITOR_INTERVAL_MINUTES must be positive. Resetting to 5.")
		cfg.JanitorInterval = 5 * time.Minute
	}
	if cfg.MaxFileServes < 1 {
		log.Println("⚠️ Warning: MAX_FILE_SERVES must be at least 1. Resetting to 3.")
		cfg.MaxFileServes = 3
	}
	if cfg.MatchTolerance < 0 {
		log.Println("⚠️ Warning: MATCH_TOLERANCE_SECONDS cannot be negative. Resetting to 5.")
		cfg.MatchTolerance = 5
	}
	if cfg.SearchResults < 1 {
		log.Println("⚠️ Warning: SEARCH_RESULTS must be at least 1. Resetting to 8.")
		cfg.SearchResults = 8
	}
	switch cfg.RateLimitStore {
	case "file", "sqlite":
	default:
		log.Printf("⚠️ Warning: unknown RATE_LIMIT_STORE %q. Falling back to file.\n", cfg.RateLimitStore)
		cfg.RateLimitStore = "file"
	}
	switch cfg.YouTubeEngine {
	case "ytdlp", "native":
	default:
		log.Printf("⚠️ Warning: unknown YOUTUBE_ENGINE %q. Falling back to ytdlp.\n", cfg.YouTubeEngine)
		cfg.YouTubeEngine = "ytdlp"
	}
	if cfg.Port != "" && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
}
