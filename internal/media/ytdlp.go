package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

const (
	defaultBinary         = "yt-dlp"
	descriptionMaxLen     = 200
	audioFormatSelector   = "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best"
	audioOutputExtension  = "mp3"
	fallbackThumbnailTmpl = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
)

type YtDlpConfig struct {
	Binary      string `json:"binary"`
	AudioDir    string `json:"audio_dir"`
	MaxDuration int64  `json:"max_duration"`
}

// ytDlpFetcher shells out to yt-dlp. Every invocation goes through
// CommandContext so a cancelled request kills the download with it.
type ytDlpFetcher struct {
	binary      string
	audioDir    string
	maxDuration int64
}

func NewYtDlpFetcher(cfg YtDlpConfig) (Fetcher, error) {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.AudioDir == "" {
		return nil, fmt.Errorf("media audio_dir is required")
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &ytDlpFetcher{
		binary:      cfg.Binary,
		audioDir:    cfg.AudioDir,
		maxDuration: cfg.MaxDuration,
	}, nil
}

// probeResult is the subset of yt-dlp's -J output we consume.
type probeResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	ViewCount   int64   `json:"view_count"`
	Description string  `json:"description"`
	Thumbnails  []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"thumbnails"`
}

func (f *ytDlpFetcher) Probe(ctx context.Context, url string) (*model.VideoInfo, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	out, err := f.run(ctx, "-J", "--no-download", "--no-warnings", url)
	if err != nil {
		return nil, err
	}
	var probe probeResult
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}
	return buildVideoInfo(url, &probe, f.maxDuration)
}

func buildVideoInfo(url string, probe *probeResult, maxDuration int64) (*model.VideoInfo, error) {
	duration := int64(probe.Duration)
	if duration > maxDuration {
		return nil, fmt.Errorf("%w: video too long (%s), max allowed %s",
			appErr.ErrInvalid, FormatDuration(duration), FormatDuration(maxDuration))
	}
	info := &model.VideoInfo{
		URL:             url,
		VideoID:         probe.ID,
		Title:           probe.Title,
		Uploader:        probe.Uploader,
		Duration:        FormatDuration(duration),
		DurationSeconds: duration,
		ThumbnailURL:    bestThumbnail(probe),
		ViewCount:       probe.ViewCount,
		Description:     truncateDescription(probe.Description),
	}
	if info.Title == "" {
		info.Title = "Unknown Title"
	}
	if info.Uploader == "" {
		info.Uploader = "Unknown Uploader"
	}
	return info, nil
}

func bestThumbnail(probe *probeResult) string {
	for _, quality := range []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault", "default"} {
		for _, thumb := range probe.Thumbnails {
			if thumb.ID == quality {
				return thumb.URL
			}
		}
	}
	if probe.Thumbnail != "" {
		return probe.Thumbnail
	}
	if probe.ID != "" {
		return fmt.Sprintf(fallbackThumbnailTmpl, probe.ID)
	}
	return ""
}

func truncateDescription(description string) string {
	if description == "" {
		return "No description available"
	}
	runes := []rune(description)
	if len(runes) <= descriptionMaxLen {
		return description
	}
	return string(runes[:descriptionMaxLen]) + "..."
}

// DownloadAudio fetches the best audio track and converts it to mp3,
// returning the file path. The video id from the earlier probe names the
// output file, so no extra yt-dlp round trip is needed to locate it. The
// caller owns deleting the file.
func (f *ytDlpFetcher) DownloadAudio(ctx context.Context, info *model.VideoInfo) (string, error) {
	if info == nil || strings.TrimSpace(info.VideoID) == "" {
		return "", fmt.Errorf("%w: video info with id is required", appErr.ErrInvalid)
	}
	if err := ValidateURL(info.URL); err != nil {
		return "", err
	}
	outTmpl := filepath.Join(f.audioDir, "%(id)s.%(ext)s")
	if _, err := f.run(ctx,
		"-f", audioFormatSelector,
		"-x", "--audio-format", audioOutputExtension,
		"--no-playlist", "--no-warnings",
		"-o", outTmpl,
		info.URL,
	); err != nil {
		return "", err
	}

	path := filepath.Join(f.audioDir, info.VideoID+"."+audioOutputExtension)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("downloaded audio not found at %s: %w", path, err)
	}
	return path, nil
}

func (f *ytDlpFetcher) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", f.binary, err, friendlyError(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// friendlyError rewrites the most common yt-dlp failures into messages a
// user can act on.
func friendlyError(stderr string) string {
	switch {
	case strings.Contains(stderr, "Requested format is not available"):
		return "no downloadable audio format; the video may be age or region restricted, or a live stream"
	case strings.Contains(stderr, "Private video"):
		return "this video is private"
	case strings.Contains(stderr, "This video is not available"):
		return "this video is not available; it may have been removed or made private"
	}
	return strings.TrimSpace(stderr)
}
