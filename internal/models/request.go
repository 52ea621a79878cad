package models

import (
	"net/url"
	"strings"
)

// Kind selects what a download request produces
type Kind string

const (
	KindVideo              Kind = "video"
	KindAudio              Kind = "audio"
	KindCrossPlatformAudio Kind = "crossPlatformAudio"
)

// DownloadRequest is the body of POST /download_start.
// Snake case names match the web client, camelCase aliases are accepted too.
type DownloadRequest struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Quality string `json:"quality"`
	Format  string `json:"format"`

	TrackTitle  string `json:"track_title"`
	TrackArtist string `json:"track_artist"`
	DurationMs  int64  `json:"duration_ms"`

	TargetTitle      string `json:"targetTitle"`
	TargetArtist     string `json:"targetArtist"`
	TargetDurationMs int64  `json:"targetDurationMs"`
}

// Normalize folds aliases and fills defaults
func (r *DownloadRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
	if r.TrackTitle == "" {
		r.TrackTitle = r.TargetTitle
	}
	if r.TrackArtist == "" {
		r.TrackArtist = r.TargetArtist
	}
	if r.DurationMs == 0 {
		r.DurationMs = r.TargetDurationMs
	}
	r.TrackTitle = strings.TrimSpace(r.TrackTitle)
	r.TrackArtist = strings.TrimSpace(r.TrackArtist)

	if r.Quality == "" {
		r.Quality = "best"
	}
	if r.Format == "" {
		switch r.Kind() {
		case KindVideo:
			r.Format = "mp4"
		default:
			r.Format = "mp3"
		}
	}
	r.Format = strings.ToLower(strings.TrimPrefix(r.Format, "."))
}

// Kind maps the request type onto a Kind, "" when unknown
func (r DownloadRequest) Kind() Kind {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "", "video":
		return KindVideo
	case "audio":
		return KindAudio
	case "crossplatformaudio", "spotify":
		return KindCrossPlatformAudio
	}
	return ""
}

// Validate returns a client error message, or "" when the request is usable
func (r DownloadRequest) Validate() string {
	switch r.Kind() {
	case "":
		return "type must be video, audio or crossPlatformAudio"
	case KindCrossPlatformAudio:
		if r.TrackTitle == "" || r.TrackArtist == "" {
			return "track_title and track_artist are required"
		}
		if r.DurationMs < 0 {
			return "duration_ms must not be negative"
		}
	default:
		if r.URL == "" {
			return "url is required"
		}
		if !IsHTTPURL(r.URL) {
			return "url must be an absolute http(s) link"
		}
	}
	return ""
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Artists splits the artist field into individual names
func (r DownloadRequest) Artists() []string {
	fields := strings.FieldsFunc(r.TrackArtist, func(c rune) bool {
		return c == ',' || c == '&' || c == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ResolveRequest is the body of POST /api/resolve
type ResolveRequest struct {
	URL string `json:"url"`
}
