package models

import "fmt"

// MediaInfo is the metadata returned by a probe and by POST /api/resolve
type MediaInfo struct {
	ID                string   `json:"id,omitempty"`
	Title             string   `json:"title"`
	Uploader          string   `json:"uploader"`
	Channel           string   `json:"channel,omitempty"`
	Artists           []string `json:"artists,omitempty"`
	Duration          float64  `json:"duration"`
	DurationDisplay   string   `json:"duration_display"`
	Thumbnail         string   `json:"thumbnail,omitempty"`
	ViewCount         int64    `json:"view_count,omitempty"`
	WebpageURL        string   `json:"webpage_url"`
	Extractor         string   `json:"extractor"`
	BestQualityLabel  string   `json:"best_quality_label,omitempty"`
	WorstQualityLabel string   `json:"worst_quality_label,omitempty"`
}

// FormatDuration renders seconds as m:ss or h:mm:ss
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int(seconds + 0.5)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// QualityLabel turns a frame height into a label like "1080p"
func QualityLabel(height int) string {
	if height <= 0 {
		return ""
	}
	if height >= 2160 {
		return "4k"
	}
	return fmt.Sprintf("%dp", height)
}
