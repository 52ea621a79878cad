package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AnshuRajbanshi029/Simple-downloader/internal/models"
	"github.com/kkdai/youtube/v2"
)

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1080p", 1080},
		{"720p60", 720},
		{"4k", 2160},
		{"4K", 2160},
		{"320kbps", 320},
		{"best", 0},
		{"", 0},
	}
	for _, test := range tests {
		if got := parseQuality(test.input); got != test.expected {
			t.Errorf("parseQuality(%q) = %d, expected %d", test.input, got, test.expected)
		}
	}
}

func TestFindBestVideoFormat(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 1, MimeType: "video/mp4", QualityLabel: "1080p"},
		{ItagNo: 2, MimeType: "audio/mp4", QualityLabel: ""},
		{ItagNo: 3, MimeType: "video/mp4", QualityLabel: "480p"},
		{ItagNo: 4, MimeType: "video/webm", QualityLabel: "720p"},
	}

	tests := []struct {
		target   int
		expected int
	}{
		{720, 4},
		{1080, 1},
		{600, 3},
		{0, 1},
		{144, 3},
	}
	for _, test := range tests {
		got := findBestVideoFormat(formats, test.target)
		if got == nil || got.ItagNo != test.expected {
			t.Errorf("target %d: expected itag %d, got %+v", test.target, test.expected, got)
		}
	}

	if findBestVideoFormat(formats[1:2], 720) != nil {
		t.Error("expected nil without video formats")
	}
}

func TestFindBestAudioFormat(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 1, MimeType: "video/mp4; codecs=\"avc1\""},
		{ItagNo: 2, MimeType: "audio/webm; codecs=\"opus\"", Bitrate: 160000},
		{ItagNo: 3, MimeType: "audio/mp4; codecs=\"mp4a\"", Bitrate: 48000},
		{ItagNo: 4, MimeType: "audio/mp4; codecs=\"mp4a\"", Bitrate: 128000},
	}
	got := findBestAudioFormat(formats)
	if got == nil || got.ItagNo != 4 {
		t.Errorf("expected highest bitrate mp4 audio, got %+v", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Shape of You", "Shape of You"},
		{`AC/DC: "T.N.T."`, "ACDC T.N.T"},
		{"  lots   of \t space ", "lots of space"},
		{"???", "download"},
		{strings.Repeat("a", 200), strings.Repeat("a", maxNameRunes)},
	}
	for _, test := range tests {
		if got := SanitizeFilename(test.input); got != test.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"a.mp3":     "audio/mpeg",
		"a.M4A":     "audio/mp4",
		"a.mp4":     "video/mp4",
		"a.mkv":     "video/x-matroska",
		"a.unknown": "application/octet-stream",
	}
	for input, expected := range tests {
		if got := MimeType(input); got != expected {
			t.Errorf("MimeType(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		err      error
		contains string
	}{
		{errors.New("open /tmp/x: permission denied"), "permission"},
		{errors.New("ERROR: [youtube] abc: Sign in to confirm you're not a bot"), "bot"},
		{fmt.Errorf("ffmpeg: exit status 1"), "FFmpeg"},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), "too long"},
		{errors.New("/var/secret/path exploded"), "unexpected"},
	}
	for _, test := range tests {
		got := FriendlyError(test.err)
		if !strings.Contains(got, test.contains) {
			t.Errorf("FriendlyError(%v) = %q, expected it to mention %q", test.err, got, test.contains)
		}
		if strings.Contains(got, "/") {
			t.Errorf("FriendlyError leaked a path: %q", got)
		}
	}
	if FriendlyError(nil) != "" {
		t.Error("expected empty message for nil error")
	}
}

func TestIsYouTubeURL(t *testing.T) {
	tests := map[string]bool{
		"https://www.youtube.com/watch?v=abc":  true,
		"https://music.youtube.com/watch?v=x":  true,
		"https://youtu.be/abc":                 true,
		"https://soundcloud.com/artist/track":  false,
		"https://notyoutube.com/watch?v=abc":   false,
		"https://open.spotify.com/track/12345": false,
		"::not a url":                          false,
	}
	for input, expected := range tests {
		if got := IsYouTubeURL(input); got != expected {
			t.Errorf("IsYouTubeURL(%q) = %v, expected %v", input, got, expected)
		}
	}
}

type recordingEngine struct {
	name  string
	calls []string
}

func (e *recordingEngine) Probe(_ context.Context, rawURL, _ string) (*models.MediaInfo, error) {
	e.calls = append(e.calls, rawURL)
	return &models.MediaInfo{Extractor: e.name}, nil
}

func (e *recordingEngine) Fetch(_ context.Context, req FetchRequest, _ Hooks) error {
	e.calls = append(e.calls, req.URL)
	return nil
}

func TestRouter(t *testing.T) {
	yt := &recordingEngine{name: "native"}
	fallback := &recordingEngine{name: "ytdlp"}
	r := NewRouter(yt, fallback)

	info, _ := r.Probe(context.Background(), "https://youtu.be/abc", "")
	if info.Extractor != "native" {
		t.Errorf("expected YouTube link on native engine, got %s", info.Extractor)
	}
	_ = r.Fetch(context.Background(), FetchRequest{URL: "https://soundcloud.com/a/b"}, Hooks{})
	if len(fallback.calls) != 1 {
		t.Errorf("expected SoundCloud link on fallback engine")
	}

	onlyFallback := NewRouter(nil, fallback)
	info, _ = onlyFallback.Probe(context.Background(), "https://youtu.be/abc", "")
	if info.Extractor != "ytdlp" {
		t.Errorf("expected fallback without native engine, got %s", info.Extractor)
	}
}

func TestParseInfoLines(t *testing.T) {
	stdout := `[debug] noise
{"id":"abc","title":"Shape of You","uploader":"Ed Sheeran","duration":234.0,"webpage_url":"https://www.youtube.com/watch?v=abc","extractor":"youtube","formats":[{"height":1080,"vcodec":"avc1"},{"height":360,"vcodec":"avc1"},{"height":null,"vcodec":"none"}]}
{"id":"def","title":"Flat","ie_key":"Youtube","duration":null}
`
	infos, err := parseInfoLines(stdout)
	if err != nil {
		t.Fatalf("parseInfoLines: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
	first := infos[0]
	if first.Title != "Shape of You" || first.Uploader != "Ed Sheeran" || first.Duration != 234 {
		t.Errorf("unexpected first entry %+v", first)
	}
	if first.BestQualityLabel != "1080p" || first.WorstQualityLabel != "360p" || first.DurationDisplay != "3:54" {
		t.Errorf("unexpected labels %+v", first)
	}
	if infos[1].WebpageURL != "https://www.youtube.com/watch?v=def" {
		t.Errorf("expected locator built from id, got %q", infos[1].WebpageURL)
	}

	if _, err := parseInfoLines("{broken"); err == nil {
		t.Error("expected decode error")
	}
}

func TestSearchTarget(t *testing.T) {
	if got := searchTarget(Query{Text: "ed sheeran shape of you", Platform: PlatformYouTube}, 8); got != "ytsearch8:ed sheeran shape of you" {
		t.Errorf("unexpected youtube target %q", got)
	}
	if got := searchTarget(Query{Text: "a b", Platform: PlatformSoundCloud}, 5); got != "scsearch5:a b" {
		t.Errorf("unexpected soundcloud target %q", got)
	}
	if got := searchTarget(Query{Text: "a & b", Platform: PlatformYouTubeMusic}, 5); got != "https://music.youtube.com/search?q=a+%26+b#songs" {
		t.Errorf("unexpected music target %q", got)
	}
}

func TestAudioCodecArgs(t *testing.T) {
	args, err := audioCodecArgs("mp3", 320)
	if err != nil || strings.Join(args, " ") != "-c:a libmp3lame -b:a 320k" {
		t.Errorf("unexpected mp3 args %v %v", args, err)
	}
	args, _ = audioCodecArgs("mp3", 0)
	if strings.Join(args, " ") != "-c:a libmp3lame -q:a 0" {
		t.Errorf("unexpected vbr args %v", args)
	}
	if _, err := audioCodecArgs("xyz", 0); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestVideoSelector(t *testing.T) {
	if videoSelector(0) != "bestvideo*+bestaudio/best" {
		t.Error("unexpected unbounded selector")
	}
	if !strings.Contains(videoSelector(720), "height<=720") {
		t.Error("expected height limit")
	}
}
