package filestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidrag/vidrag/internal/model"
)

func newLocalStore(t *testing.T) Store {
	t.Helper()
	st, err := New("local", map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)
	return st
}

func TestTranscriptRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newLocalStore(t)

	in := &model.Transcript{
		Title:     "Animal Facts",
		Uploader:  "nature channel",
		SourceURL: "https://youtu.be/abc",
		VideoID:   "abc",
		Text:      "Cats are mammals.",
		WordCount: 3,
		Segments:  []model.Segment{{Start: 0, End: 2, Text: "Cats are mammals."}},
	}
	require.NoError(t, SaveTranscript(ctx, st, "abc", in))

	got, found := LoadTranscript(ctx, st, "abc")
	require.True(t, found)
	require.Equal(t, in, got)
}

func TestTranscriptCacheMiss(t *testing.T) {
	ctx := context.Background()
	st := newLocalStore(t)

	_, found := LoadTranscript(ctx, st, "never-saved")
	require.False(t, found)

	_, found = LoadTranscript(ctx, st, "")
	require.False(t, found)
}

func TestSaveTranscriptRequiresVideoID(t *testing.T) {
	st := newLocalStore(t)
	require.Error(t, SaveTranscript(context.Background(), st, "", &model.Transcript{}))
}

func TestLocalStoreRejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	st := newLocalStore(t)

	err := SaveTranscript(ctx, st, "../escape", &model.Transcript{})
	require.Error(t, err)
}
