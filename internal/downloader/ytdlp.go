package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
	"github.com/lrstanley/go-ytdlp"
)

// DefaultSearchLimit caps the results read from one search call
const DefaultSearchLimit = 8

const outputTemplate = "%(title).150B.%(ext)s"

// endOfOptions stops yt-dlp from reading the target as a flag
const endOfOptions = "--"

// YtdlpEngine drives the yt-dlp executable. It handles every site yt-dlp
// supports and is the only Searcher.
type YtdlpEngine struct {
	executable string
	ffmpeg     string
}

func NewYtdlpEngine(executable, ffmpeg string) *YtdlpEngine {
	return &YtdlpEngine{executable: executable, ffmpeg: ffmpeg}
}

func (e *YtdlpEngine) command(proxy string) *ytdlp.Command {
	cmd := ytdlp.New()
	if e.executable != "" {
		cmd.SetExecutable(e.executable)
	}
	if e.ffmpeg != "" {
		cmd.FFmpegLocation(e.ffmpeg)
	}
	if proxy != "" {
		cmd.Proxy(proxy)
	}
	return cmd
}

func (e *YtdlpEngine) Probe(ctx context.Context, rawURL, proxy string) (*models.MediaInfo, error) {
	res, err := e.command(proxy).
		NoPlaylist().
		SkipDownload().
		DumpJSON().
		Run(ctx, endOfOptions, rawURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp probe: %w", err)
	}
	infos, err := parseInfoLines(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, errors.New("yt-dlp probe: no metadata returned")
	}
	return &infos[0], nil
}

func (e *YtdlpEngine) Search(ctx context.Context, q Query, proxy string) ([]models.MediaInfo, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	res, err := e.command(proxy).
		FlatPlaylist().
		SkipDownload().
		DumpJSON().
		Run(ctx, endOfOptions, searchTarget(q, limit))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search %s: %w", q.Platform, err)
	}
	infos, err := parseInfoLines(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (e *YtdlpEngine) Fetch(ctx context.Context, req FetchRequest, hooks Hooks) error {
	cmd := e.command(req.Proxy).
		NoPlaylist().
		ForceOverwrites().
		Output(filepath.Join(req.Dir, outputTemplate))

	switch req.Kind {
	case models.KindVideo:
		cmd.Format(videoSelector(parseQuality(req.Quality)))
		if req.Format != "" {
			cmd.MergeOutputFormat(req.Format)
		}
	default:
		cmd.Format("bestaudio/best").
			ExtractAudio().
			AudioFormat(req.Format).
			AudioQuality(audioQuality(req.Quality))
	}

	var (
		mu       sync.Mutex
		phase    int
		lastFile string
		post     bool
	)
	startPost := func() {
		if !post {
			post = true
			hooks.postProcess(false)
		}
	}

	cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()

		switch update.Status {
		case ytdlp.ProgressStatusPostProcessing:
			startPost()
			return
		case ytdlp.ProgressStatusDownloading, ytdlp.ProgressStatusFinished:
		default:
			return
		}
		if post {
			return
		}
		if phase == 0 || update.Filename != lastFile {
			lastFile = update.Filename
			phase++
		}
		hooks.transfer(phase, int64(update.DownloadedBytes), int64(update.TotalBytes))
	})

	if _, err := cmd.Run(ctx, endOfOptions, req.URL); err != nil {
		return fmt.Errorf("yt-dlp download: %w", err)
	}

	mu.Lock()
	startPost()
	mu.Unlock()
	hooks.postProcess(true)
	return nil
}

func searchTarget(q Query, limit int) string {
	switch q.Platform {
	case PlatformYouTubeMusic:
		return "https://music.youtube.com/search?q=" + url.QueryEscape(q.Text) + "#songs"
	case PlatformSoundCloud:
		return fmt.Sprintf("scsearch%d:%s", limit, q.Text)
	default:
		return fmt.Sprintf("ytsearch%d:%s", limit, q.Text)
	}
}

func videoSelector(height int) string {
	if height <= 0 {
		return "bestvideo*+bestaudio/best"
	}
	return fmt.Sprintf("bestvideo*[height<=%d]+bestaudio/best[height<=%d]/best", height, height)
}

// audioQuality maps "320", "320kbps" or "best" onto yt-dlp's --audio-quality
func audioQuality(q string) string {
	if kbps := parseQuality(q); kbps > 0 {
		return fmt.Sprintf("%dK", kbps)
	}
	return "0"
}

type infoJSON struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Track        string   `json:"track"`
	Uploader     string   `json:"uploader"`
	Channel      string   `json:"channel"`
	Artist       string   `json:"artist"`
	Artists      []string `json:"artists"`
	Creator      string   `json:"creator"`
	Duration     float64  `json:"duration"`
	Thumbnail    string   `json:"thumbnail"`
	ViewCount    int64    `json:"view_count"`
	WebpageURL   string   `json:"webpage_url"`
	URL          string   `json:"url"`
	Extractor    string   `json:"extractor"`
	ExtractorKey string   `json:"extractor_key"`
	IEKey        string   `json:"ie_key"`
	Formats      []struct {
		Height int    `json:"height"`
		VCodec string `json:"vcodec"`
	} `json:"formats"`
}

// parseInfoLines decodes the one-object-per-line output of --dump-json,
// skipping lines that are not JSON objects.
func parseInfoLines(stdout string) ([]models.MediaInfo, error) {
	var out []models.MediaInfo
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info infoJSON
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("decode yt-dlp output: %w", err)
		}
		out = append(out, info.media())
	}
	return out, nil
}

func (i infoJSON) media() models.MediaInfo {
	m := models.MediaInfo{
		ID:         i.ID,
		Title:      i.Title,
		Uploader:   firstNonEmpty(i.Uploader, i.Channel, i.Artist, i.Creator),
		Channel:    i.Channel,
		Artists:    i.Artists,
		Duration:   i.Duration,
		Thumbnail:  i.Thumbnail,
		ViewCount:  i.ViewCount,
		WebpageURL: firstNonEmpty(i.WebpageURL, i.URL),
		Extractor:  strings.ToLower(firstNonEmpty(i.Extractor, i.ExtractorKey, i.IEKey)),
	}
	if m.Title == "" {
		m.Title = i.Track
	}
	if len(m.Artists) == 0 && i.Artist != "" {
		m.Artists = []string{i.Artist}
	}
	// flat entries sometimes carry only the video id
	if m.WebpageURL == "" && i.ID != "" && strings.Contains(m.Extractor, "youtube") {
		m.WebpageURL = "https://www.youtube.com/watch?v=" + i.ID
	}
	m.DurationDisplay = models.FormatDuration(m.Duration)

	best, worst := 0, 0
	for _, f := range i.Formats {
		if f.Height <= 0 || f.VCodec == "none" {
			continue
		}
		if f.Height > best {
			best = f.Height
		}
		if worst == 0 || f.Height < worst {
			worst = f.Height
		}
	}
	m.BestQualityLabel = models.QualityLabel(best)
	m.WorstQualityLabel = models.QualityLabel(worst)
	return m
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
