// Package transcribe converts downloaded audio into transcripts through an
// OpenAI-compatible speech-to-text endpoint.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, info *model.VideoInfo) (*model.Transcript, error)
}

type WhisperConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int    `json:"timeout"`
}

const (
	defaultWhisperModel   = "whisper-1"
	defaultWhisperTimeout = 600
)

// whisperClient talks to any endpoint implementing the OpenAI audio
// transcription API, which covers hosted whisper as well as local servers
// like faster-whisper-server.
type whisperClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewWhisperClient(cfg WhisperConfig) (Transcriber, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("transcriber base_url is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWhisperTimeout
	}
	return &whisperClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
}

func (w *whisperClient) Transcribe(ctx context.Context, audioPath string, info *model.VideoInfo) (*model.Transcript, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("model", w.model); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("response_format", "verbose_json"); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/audio/transcriptions", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	rsp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: transcription request failed: %v", appErr.ErrUnavailable, err)
	}
	defer rsp.Body.Close()
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read transcription response: %v", appErr.ErrUnavailable, err)
	}
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: transcription endpoint returned %d: %s",
			appErr.ErrUnavailable, rsp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded whisperResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return buildTranscript(&decoded, info), nil
}

func buildTranscript(rsp *whisperResponse, info *model.VideoInfo) *model.Transcript {
	t := &model.Transcript{
		Text:      strings.TrimSpace(rsp.Text),
		Segments:  make([]model.Segment, 0, len(rsp.Segments)),
		WordCount: len(strings.Fields(rsp.Text)),
	}
	if info != nil {
		t.Title = info.Title
		t.Uploader = info.Uploader
		t.SourceURL = info.URL
		t.VideoID = info.VideoID
	}
	for _, seg := range rsp.Segments {
		t.Segments = append(t.Segments, model.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return t
}
