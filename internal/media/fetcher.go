// Package media resolves video URLs to metadata and downloaded audio files.
package media

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

// DefaultMaxDuration caps processable videos at two hours.
const DefaultMaxDuration = 7200

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/watch\?v=[^&]+`),
	regexp.MustCompile(`^https?://youtu\.be/[^?]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/embed/[^/]+`),
}

// ValidateURL accepts the YouTube URL shapes the downloader understands.
func ValidateURL(url string) error {
	for _, pattern := range youtubePatterns {
		if pattern.MatchString(url) {
			return nil
		}
	}
	return fmt.Errorf("%w: not a recognized youtube url: %s", appErr.ErrInvalid, url)
}

// FormatDuration renders seconds as MM:SS, or HH:MM:SS past an hour.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "Unknown"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Fetcher probes and downloads video audio. Probe never downloads; it is
// the cheap validity and duration gate that runs before any heavy work.
type Fetcher interface {
	Probe(ctx context.Context, url string) (*model.VideoInfo, error)
	DownloadAudio(ctx context.Context, info *model.VideoInfo) (string, error)
}
