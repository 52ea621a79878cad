package downloader

import (
	"mime"
	"path/filepath"
	"strings"
	"unicode"
)

const maxNameRunes = 150

var fallbackMimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// SanitizeFilename makes a title safe to use as a download file name
func SanitizeFilename(name string) string {
	safe := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	safe = strings.Join(strings.Fields(safe), " ")
	safe = strings.Trim(safe, ". ")

	if r := []rune(safe); len(r) > maxNameRunes {
		safe = strings.TrimSpace(string(r[:maxNameRunes]))
	}
	if safe == "" {
		return "download"
	}
	return safe
}

// MimeType guesses the content type from a file extension
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := fallbackMimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
