package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vidrag/vidrag/internal/ai"
	"github.com/vidrag/vidrag/internal/filestore"
	"github.com/vidrag/vidrag/internal/kb"
	"github.com/vidrag/vidrag/internal/media"
	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
	"github.com/vidrag/vidrag/internal/session"
	"github.com/vidrag/vidrag/internal/transcribe"
)

// NoRelevantContentMessage is the canned answer when retrieval finds
// nothing close enough to the question in the active video.
const NoRelevantContentMessage = "I couldn't find relevant information in this video to answer your question."

type VideoService struct {
	fetcher     media.Fetcher
	transcriber transcribe.Transcriber
	transcripts filestore.Store
	kb          *kb.Manager
	ai          *ai.Manager
	sessions    *session.Manager
}

func NewVideoService(
	fetcher media.Fetcher,
	transcriber transcribe.Transcriber,
	transcripts filestore.Store,
	kbMgr *kb.Manager,
	aiMgr *ai.Manager,
	sessions *session.Manager,
) *VideoService {
	return &VideoService{
		fetcher:     fetcher,
		transcriber: transcriber,
		transcripts: transcripts,
		kb:          kbMgr,
		ai:          aiMgr,
		sessions:    sessions,
	}
}

// Process runs the full pipeline for one URL: probe, transcribe (or reuse
// the cached transcript), ingest into the vector store and register the
// video in the session library. The new video becomes the active one.
func (s *VideoService) Process(ctx context.Context, sessionID, url string) (*session.VideoEntry, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID), zap.String("url", url))

	info, err := s.fetcher.Probe(ctx, url)
	if err != nil {
		logger.Error("probe failed", zap.Error(err))
		return nil, err
	}
	logger = logger.With(zap.String("video_id", info.VideoID), zap.String("title", info.Title))

	transcript, cached := filestore.LoadTranscript(ctx, s.transcripts, info.VideoID)
	if cached {
		logger.Info("using cached transcript", zap.Int("word_count", transcript.WordCount))
	} else {
		transcript, err = s.transcribeFresh(ctx, info)
		if err != nil {
			return nil, err
		}
		if err := filestore.SaveTranscript(ctx, s.transcripts, info.VideoID, transcript); err != nil {
			// cache failures must not fail processing
			logger.Warn("failed to cache transcript", zap.Error(err))
		}
	}

	collection, chunkCount, err := s.kb.Ingest(ctx, sessionID, transcript)
	if err != nil {
		logger.Error("ingest failed", zap.Error(err))
		return nil, err
	}
	logger.Info("video ingested", zap.String("collection", collection), zap.Int("chunks", chunkCount))

	entry := session.VideoEntry{
		Collection:  collection,
		Info:        *info,
		ChunkCount:  chunkCount,
		ProcessedAt: time.Now(),
	}
	sess := s.sessions.Get(sessionID)
	if evicted := sess.Register(entry); evicted != nil {
		if _, err := s.kb.Drop(ctx, evicted.Collection); err != nil {
			logger.Warn("failed to drop evicted collection",
				zap.String("collection", evicted.Collection), zap.Error(err))
		} else {
			logger.Info("evicted oldest library video", zap.String("collection", evicted.Collection))
		}
	}
	return &entry, nil
}

func (s *VideoService) transcribeFresh(ctx context.Context, info *model.VideoInfo) (*model.Transcript, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("video_id", info.VideoID))
	audioPath, err := s.fetcher.DownloadAudio(ctx, info)
	if err != nil {
		logger.Error("audio download failed", zap.Error(err))
		return nil, err
	}
	defer func() {
		if err := os.Remove(audioPath); err != nil {
			logger.Warn("failed to remove audio file", zap.String("path", audioPath), zap.Error(err))
		}
	}()

	transcript, err := s.transcriber.Transcribe(ctx, audioPath, info)
	if err != nil {
		logger.Error("transcription failed", zap.Error(err))
		return nil, err
	}
	logger.Info("audio transcribed", zap.Int("word_count", transcript.WordCount))
	return transcript, nil
}

// Ask answers a question against the active video. Retrieval misses get
// the canned no-content answer rather than an error; both turns still land
// in the chat history.
func (s *VideoService) Ask(ctx context.Context, sessionID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	sess := s.sessions.Get(sessionID)
	collection, ok := sess.Active()
	if !ok {
		return "", fmt.Errorf("%w: no active video; process one first", appErr.ErrNotFound)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID), zap.String("collection", collection))

	hits, err := s.kb.Retrieve(ctx, collection, question, 0)
	if err != nil {
		if appErr.IsEmptyResult(err) {
			sess.AppendChat(model.RoleUser, question)
			sess.AppendChat(model.RoleAssistant, NoRelevantContentMessage)
			return NoRelevantContentMessage, nil
		}
		logger.Error("retrieval failed", zap.Error(err))
		return "", err
	}

	answer, err := s.ai.Answer(ctx, question, kb.BuildContext(hits))
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return "", err
	}
	sess.AppendChat(model.RoleUser, question)
	sess.AppendChat(model.RoleAssistant, answer)
	logger.Info("question answered", zap.Int("hits", len(hits)))
	return answer, nil
}

// Library lists the session's videos, oldest first.
func (s *VideoService) Library(sessionID string) []session.VideoEntry {
	return s.sessions.Get(sessionID).Library()
}

// SetActive switches the active video within the library.
func (s *VideoService) SetActive(sessionID, collection string) error {
	return s.sessions.Get(sessionID).SetActive(collection)
}

// Active returns the currently active library entry.
func (s *VideoService) Active(sessionID string) (session.VideoEntry, bool) {
	return s.sessions.Get(sessionID).ActiveEntry()
}

// Remove deletes a video from the library together with its collection.
func (s *VideoService) Remove(ctx context.Context, sessionID, collection string) error {
	sess := s.sessions.Get(sessionID)
	_, found := sess.Remove(collection)
	if !found {
		return fmt.Errorf("%w: video not in library: %s", appErr.ErrNotFound, collection)
	}
	if _, err := s.kb.Drop(ctx, collection); err != nil {
		logutil.GetLogger(ctx).Warn("failed to drop collection",
			zap.String("collection", collection), zap.Error(err))
	}
	return nil
}

// History returns the chat transcript of the session.
func (s *VideoService) History(sessionID string) []model.ChatMessage {
	return s.sessions.Get(sessionID).History()
}

// ClearChat wipes the chat history, keeping the library intact.
func (s *VideoService) ClearChat(sessionID string) {
	s.sessions.Get(sessionID).ClearChat()
}
