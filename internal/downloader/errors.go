package downloader

import (
	"context"
	"errors"
	"strings"
)

// FriendlyError turns an engine failure into a message safe to show to
// users. Paths and raw tool output never leak through.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The download took too long and was stopped."
	}
	if errors.Is(err, context.Canceled) {
		return "The download was cancelled."
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"):
		return "Storage permission denied. Please contact system administrator."
	case strings.Contains(msg, "no space left"):
		return "Disk space exhausted. Cannot complete download."
	case strings.Contains(msg, "ffmpeg"):
		return "Media processing error (FFmpeg failed). Please try again."
	case strings.Contains(msg, "sign in to confirm") || strings.Contains(msg, "not a bot"):
		return "The source asked for a sign in to confirm this is not a bot."
	case strings.Contains(msg, "private video") || strings.Contains(msg, "video unavailable"):
		return "This media is private or unavailable."
	case strings.Contains(msg, "unsupported url"):
		return "This link is not supported."
	case strings.Contains(msg, "cipher") || strings.Contains(msg, "signature"):
		return "YouTube restricted access to this video (Cipher/Signature error)."
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return "The source is rate limiting the server. Please try again later."
	case strings.Contains(msg, "403"):
		return "Access forbidden. The source might be throttling the server IP."
	case strings.Contains(msg, "proxy"):
		return "Could not reach the source through the configured network route."
	default:
		return "An unexpected technical error occurred during processing."
	}
}
