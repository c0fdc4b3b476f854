package model

// VideoInfo is the metadata the media collaborator reports for a URL.
type VideoInfo struct {
	URL             string `json:"url"`
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Uploader        string `json:"uploader"`
	Duration        string `json:"duration"`
	DurationSeconds int64  `json:"duration_seconds"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ViewCount       int64  `json:"view_count"`
	Description     string `json:"description"`
}
