package job

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// AudioCleanupJob removes leftover audio downloads. The service deletes
// each file after transcription, so anything still on disk past maxAge is
// an orphan from a crashed or cancelled run.
type AudioCleanupJob struct {
	dir    string
	maxAge time.Duration
}

func NewAudioCleanupJob(dir string, maxAge time.Duration) *AudioCleanupJob {
	return &AudioCleanupJob{dir: dir, maxAge: maxAge}
}

func (j *AudioCleanupJob) Name() string {
	return "audio_cleanup"
}

func (j *AudioCleanupJob) Run(ctx context.Context) error {
	if j.dir == "" {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 6 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	logger := logutil.GetLogger(ctx)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale audio file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("stale audio files removed", zap.Int("count", removed))
	}
	return nil
}
