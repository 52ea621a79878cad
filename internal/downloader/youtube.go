package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
	"github.com/kkdai/youtube/v2"
)

// YouTubeEngine downloads YouTube media natively: separate video and
// audio streams, muxed or transcoded with ffmpeg.
type YouTubeEngine struct {
	ffmpeg string
}

func NewYouTubeEngine(ffmpeg string) *YouTubeEngine {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &YouTubeEngine{ffmpeg: ffmpeg}
}

func (e *YouTubeEngine) client(proxy string) (*youtube.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &youtube.Client{HTTPClient: &http.Client{Transport: transport}}, nil
}

func (e *YouTubeEngine) Probe(ctx context.Context, rawURL, proxy string) (*models.MediaInfo, error) {
	c, err := e.client(proxy)
	if err != nil {
		return nil, err
	}
	video, err := c.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("video info: %w", err)
	}
	info := videoInfo(video)
	return &info, nil
}

func (e *YouTubeEngine) Fetch(ctx context.Context, req FetchRequest, hooks Hooks) error {
	c, err := e.client(req.Proxy)
	if err != nil {
		return err
	}
	video, err := c.GetVideoContext(ctx, req.URL)
	if err != nil {
		return fmt.Errorf("video info: %w", err)
	}

	audioFormat := findBestAudioFormat(video.Formats)
	if audioFormat == nil {
		return errors.New("audio format not found")
	}

	safeTitle := SanitizeFilename(video.Title)
	audioTemp := filepath.Join(req.Dir, "audio.temp")
	defer os.Remove(audioTemp)

	var out string
	switch req.Kind {
	case models.KindVideo:
		videoFormat := findBestVideoFormat(video.Formats, parseQuality(req.Quality))
		if videoFormat == nil {
			return errors.New("video format not found")
		}
		videoTemp := filepath.Join(req.Dir, "video.temp")
		defer os.Remove(videoTemp)

		if err := downloadStream(ctx, c, video, videoFormat, videoTemp, phaseHook(hooks, 1)); err != nil {
			return err
		}
		if err := downloadStream(ctx, c, video, audioFormat, audioTemp, phaseHook(hooks, 2)); err != nil {
			return err
		}

		hooks.postProcess(false)
		ext := "mp4"
		if req.Format == "mkv" {
			ext = "mkv"
		}
		out = filepath.Join(req.Dir, safeTitle+"."+ext)
		if err := e.ffmpegRun(ctx, "-i", videoTemp, "-i", audioTemp, "-c", "copy", out); err != nil {
			return err
		}

	default:
		if err := downloadStream(ctx, c, video, audioFormat, audioTemp, phaseHook(hooks, 1)); err != nil {
			return err
		}

		hooks.postProcess(false)
		codec, err := audioCodecArgs(req.Format, parseQuality(req.Quality))
		if err != nil {
			return err
		}
		out = filepath.Join(req.Dir, safeTitle+"."+req.Format)
		args := append([]string{"-i", audioTemp, "-vn"}, codec...)
		if err := e.ffmpegRun(ctx, append(args, out)...); err != nil {
			return err
		}
	}

	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		return errors.New("generated file is empty")
	}
	hooks.postProcess(true)
	return nil
}

func (e *YouTubeEngine) ffmpegRun(ctx context.Context, args ...string) error {
	args = append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func phaseHook(h Hooks, phase int) func(done, total int64) {
	return func(done, total int64) {
		h.transfer(phase, done, total)
	}
}

func audioCodecArgs(format string, kbps int) ([]string, error) {
	bitrate := func(def string) string {
		if kbps > 0 {
			return strconv.Itoa(kbps) + "k"
		}
		return def
	}
	switch format {
	case "mp3":
		if kbps > 0 {
			return []string{"-c:a", "libmp3lame", "-b:a", bitrate("")}, nil
		}
		return []string{"-c:a", "libmp3lame", "-q:a", "0"}, nil
	case "m4a", "aac":
		return []string{"-c:a", "aac", "-b:a", bitrate("192k")}, nil
	case "opus":
		return []string{"-c:a", "libopus", "-b:a", bitrate("160k")}, nil
	case "flac":
		return []string{"-c:a", "flac"}, nil
	case "wav":
		return []string{"-c:a", "pcm_s16le"}, nil
	}
	return nil, fmt.Errorf("unsupported audio format %q", format)
}

func videoInfo(v *youtube.Video) models.MediaInfo {
	info := models.MediaInfo{
		ID:         v.ID,
		Title:      v.Title,
		Uploader:   v.Author,
		Channel:    v.Author,
		Duration:   v.Duration.Seconds(),
		ViewCount:  int64(v.Views),
		WebpageURL: "https://www.youtube.com/watch?v=" + v.ID,
		Extractor:  "youtube",
	}
	info.DurationDisplay = models.FormatDuration(info.Duration)
	if n := len(v.Thumbnails); n > 0 {
		info.Thumbnail = v.Thumbnails[n-1].URL
	}

	best, worst := 0, 0
	for _, f := range v.Formats {
		if !strings.Contains(f.MimeType, "video") {
			continue
		}
		h := parseQuality(f.QualityLabel)
		if h <= 0 {
			continue
		}
		if h > best {
			best = h
		}
		if worst == 0 || h < worst {
			worst = h
		}
	}
	info.BestQualityLabel = models.QualityLabel(best)
	info.WorstQualityLabel = models.QualityLabel(worst)
	return info
}

func downloadStream(ctx context.Context, c *youtube.Client, v *youtube.Video, f *youtube.Format, path string, cb func(done, total int64)) error {
	stream, size, err := c.GetStreamContext(ctx, v, f)
	if err != nil {
		return err
	}
	defer stream.Close()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	total := f.ContentLength
	if total <= 0 {
		total = size
	}

	var done int64
	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return werr
			}
			done += int64(n)
			cb(done, total)
		}
		if err != nil {
			if err == io.EOF {
				return file.Close()
			}
			return err
		}
	}
}

// parseQuality pulls the number out of labels like "1080p", "720p60" or
// "320kbps". "4k" is 2160; anything without digits is 0.
func parseQuality(q string) int {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "4k" {
		return 2160
	}
	digits := ""
	for _, c := range q {
		if c >= '0' && c <= '9' {
			digits += string(c)
		} else if digits != "" {
			break
		}
	}
	if digits == "" {
		return 0
	}
	val, _ := strconv.Atoi(digits)
	return val
}

// findBestVideoFormat returns the tallest video format not above
// targetHeight, or the shortest one when all are taller. A target of 0
// means no limit.
func findBestVideoFormat(formats youtube.FormatList, targetHeight int) *youtube.Format {
	var best, lowest *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.Contains(f.MimeType, "video") {
			continue
		}
		h := parseQuality(f.QualityLabel)
		if lowest == nil || h < parseQuality(lowest.QualityLabel) {
			lowest = f
		}
		if targetHeight > 0 && h > targetHeight {
			continue
		}
		if best == nil || h > parseQuality(best.QualityLabel) {
			best = f
		}
	}
	if best == nil {
		return lowest
	}
	return best
}

func findBestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio") {
			continue
		}
		if best == nil {
			best = f
			continue
		}
		bestMP4 := strings.Contains(best.MimeType, "mp4")
		isMP4 := strings.Contains(f.MimeType, "mp4")
		if (isMP4 && !bestMP4) || (isMP4 == bestMP4 && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}
