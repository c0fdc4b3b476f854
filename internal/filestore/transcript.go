package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vidrag/vidrag/internal/model"
)

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func transcriptKey(videoID string) string {
	return videoID + ".json"
}

// SaveTranscript archives a transcript keyed by video id. Failures are
// surfaced so the caller can log them; a broken cache never fails the
// processing pipeline.
func SaveTranscript(ctx context.Context, st Store, videoID string, t *model.Transcript) error {
	if videoID == "" {
		return fmt.Errorf("video id is required")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	r := readSeekNopCloser{bytes.NewReader(data)}
	return st.Save(ctx, transcriptKey(videoID), r, int64(len(data)))
}

// LoadTranscript returns the cached transcript, or found=false on any
// miss, including backends without read support.
func LoadTranscript(ctx context.Context, st Store, videoID string) (*model.Transcript, bool) {
	if videoID == "" {
		return nil, false
	}
	rc, err := st.Open(ctx, transcriptKey(videoID))
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	t := &model.Transcript{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, false
	}
	return t, true
}
