package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&t=10s",
		"http://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=share",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
	}
	for _, url := range valid {
		require.NoError(t, ValidateURL(url), url)
	}

	invalid := []string{
		"",
		"not a url",
		"https://vimeo.com/12345",
		"https://www.youtube.com/playlist?list=PL123",
		"ftp://youtube.com/watch?v=abc",
	}
	for _, url := range invalid {
		require.ErrorIs(t, ValidateURL(url), appErr.ErrInvalid, url)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "Unknown"},
		{-5, "Unknown"},
		{59, "00:59"},
		{61, "01:01"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{7325, "02:02:05"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatDuration(tt.seconds))
	}
}

func TestBuildVideoInfo(t *testing.T) {
	probe := &probeResult{
		ID:          "abc123",
		Title:       "A Video",
		Uploader:    "someone",
		Duration:    125,
		ViewCount:   1000,
		Description: "short description",
	}
	info, err := buildVideoInfo("https://youtu.be/abc123", probe, DefaultMaxDuration)
	require.NoError(t, err)
	require.Equal(t, "abc123", info.VideoID)
	require.Equal(t, "02:05", info.Duration)
	require.Equal(t, int64(125), info.DurationSeconds)
	require.Equal(t, "https://img.youtube.com/vi/abc123/maxresdefault.jpg", info.ThumbnailURL)
}

func TestBuildVideoInfoRejectsLongVideo(t *testing.T) {
	probe := &probeResult{ID: "x", Title: "Long", Duration: 7201}
	_, err := buildVideoInfo("https://youtu.be/x", probe, DefaultMaxDuration)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Contains(t, err.Error(), "02:00:01")
}

func TestBuildVideoInfoDefaults(t *testing.T) {
	probe := &probeResult{ID: "x", Duration: 10}
	info, err := buildVideoInfo("https://youtu.be/x", probe, DefaultMaxDuration)
	require.NoError(t, err)
	require.Equal(t, "Unknown Title", info.Title)
	require.Equal(t, "Unknown Uploader", info.Uploader)
	require.Equal(t, "No description available", info.Description)
}

func TestBestThumbnailPrefersHighQuality(t *testing.T) {
	probe := &probeResult{
		ID:        "vid",
		Thumbnail: "https://example.com/generic.jpg",
	}
	probe.Thumbnails = []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}{
		{ID: "default", URL: "https://example.com/default.jpg"},
		{ID: "hqdefault", URL: "https://example.com/hq.jpg"},
	}
	require.Equal(t, "https://example.com/hq.jpg", bestThumbnail(probe))
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := truncateDescription(long)
	require.Len(t, got, 203)
	require.True(t, strings.HasSuffix(got, "..."))
	require.Equal(t, "keep", truncateDescription("keep"))
}

func TestDownloadAudioRequiresProbedInfo(t *testing.T) {
	f := &ytDlpFetcher{binary: defaultBinary, audioDir: t.TempDir()}

	_, err := f.DownloadAudio(context.Background(), nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = f.DownloadAudio(context.Background(), &model.VideoInfo{URL: "https://youtu.be/abc"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestFriendlyError(t *testing.T) {
	require.Contains(t, friendlyError("ERROR: Private video, sign in"), "private")
	require.Contains(t, friendlyError("ERROR: Requested format is not available"), "restricted")
	require.Equal(t, "some other failure", friendlyError("  some other failure\n"))
}
