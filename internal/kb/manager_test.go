package kb

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
	"github.com/vidrag/vidrag/internal/store"
)

// bagEmbedder maps text to keyword counts so related texts land close in
// vector space without any network call.
type bagEmbedder struct {
	vocab []string
	calls []string
}

func newBagEmbedder() *bagEmbedder {
	return &bagEmbedder{vocab: []string{"cat", "dog", "sky", "water", "mammal"}}
}

func (e *bagEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls = append(e.calls, taskType)
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	for i, word := range e.vocab {
		vec[i] = float32(strings.Count(lower, word))
	}
	vec[len(e.vocab)] = 0.01
	return vec, nil
}

func (e *bagEmbedder) ModelName() string { return "bag-of-words" }

func newTestManager(t *testing.T) (*Manager, *bagEmbedder) {
	t.Helper()
	mgr, _, emb := newTestManagerWithStore(t)
	return mgr, emb
}

func newTestManagerWithStore(t *testing.T) (*Manager, store.Store, *bagEmbedder) {
	t.Helper()
	st, err := store.New("sqlite", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "kb.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	emb := newBagEmbedder()
	return NewManager(st, emb, Options{ChunkSize: 100, Overlap: 10}), st, emb
}

func transcriptFixture() *model.Transcript {
	return &model.Transcript{
		Title:     "All About Cats!",
		Uploader:  "nature channel",
		SourceURL: "https://www.youtube.com/watch?v=abc123",
		Text: "Cats are mammals and they are wonderful companions. " +
			"Dogs are mammals too and they love to play outside. " +
			"The sky is blue on a clear day. " +
			"Water covers most of the planet surface.",
	}
}

func TestCollectionNameStable(t *testing.T) {
	tr := transcriptFixture()
	a := CollectionName("sess", tr)
	b := CollectionName("sess", tr)
	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, "video_all_about_cats"))
}

func TestCollectionNameDistinguishesByURL(t *testing.T) {
	a := transcriptFixture()
	b := transcriptFixture()
	b.SourceURL = "https://www.youtube.com/watch?v=other"
	require.NotEqual(t, CollectionName("sess", a), CollectionName("sess", b))
}

func TestCollectionNameDistinguishesByScope(t *testing.T) {
	tr := transcriptFixture()
	alice := CollectionName("alice", tr)
	bob := CollectionName("bob", tr)
	require.NotEqual(t, alice, bob)
	require.True(t, strings.HasPrefix(alice, "video_all_about_cats"))
	require.True(t, strings.HasPrefix(bob, "video_all_about_cats"))
}

func TestCollectionNameFallsBackToText(t *testing.T) {
	tr := &model.Transcript{Title: "  ", Text: "some transcript"}
	name := CollectionName("sess", tr)
	require.True(t, strings.HasPrefix(name, "video_video_"))
}

func TestIngestAndRetrieve(t *testing.T) {
	ctx := context.Background()
	mgr, emb := newTestManager(t)

	name, count, err := mgr.Ingest(ctx, "sess", transcriptFixture())
	require.NoError(t, err)
	require.Greater(t, count, 0)

	hits, err := mgr.Retrieve(ctx, name, "tell me about cats", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Contains(t, strings.ToLower(hits[0].Document), "cat")
	require.Equal(t, "All About Cats!", hits[0].Meta.VideoTitle)

	require.Contains(t, emb.calls, "RETRIEVAL_DOCUMENT")
	require.Equal(t, "RETRIEVAL_QUERY", emb.calls[len(emb.calls)-1])
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	tr := transcriptFixture()

	nameA, countA, err := mgr.Ingest(ctx, "sess", tr)
	require.NoError(t, err)
	nameB, countB, err := mgr.Ingest(ctx, "sess", tr)
	require.NoError(t, err)
	require.Equal(t, nameA, nameB)
	require.Equal(t, countA, countB)

	hits, err := mgr.Retrieve(ctx, nameA, "cats", 100)
	require.NoError(t, err)
	require.Len(t, hits, countA)
}

func TestIngestEmptyTranscript(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	_, _, err := mgr.Ingest(ctx, "sess", &model.Transcript{Title: "x", Text: "   "})
	require.ErrorIs(t, err, appErr.ErrEmptyContent)

	_, _, err = mgr.Ingest(ctx, "sess", nil)
	require.ErrorIs(t, err, appErr.ErrEmptyContent)
}

func TestIngestFiltersTinyChunks(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	_, _, err := mgr.Ingest(ctx, "sess", &model.Transcript{
		Title:     "short",
		SourceURL: "https://example.com/v",
		Text:      "tiny",
	})
	require.ErrorIs(t, err, appErr.ErrEmptyContent)
}

func TestRetrieveIsolationBetweenVideos(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	catsName, _, err := mgr.Ingest(ctx, "sess", transcriptFixture())
	require.NoError(t, err)

	other := transcriptFixture()
	other.Title = "Ocean Documentary"
	other.SourceURL = "https://www.youtube.com/watch?v=ocean"
	other.Text = "Water is everywhere in the ocean. Water sustains all life on this planet."
	oceanName, _, err := mgr.Ingest(ctx, "sess", other)
	require.NoError(t, err)
	require.NotEqual(t, catsName, oceanName)

	hits, err := mgr.Retrieve(ctx, oceanName, "water", 10)
	require.NoError(t, err)
	for _, hit := range hits {
		require.Equal(t, "Ocean Documentary", hit.Meta.VideoTitle)
	}
}

func TestRetrieveMissingCollection(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	_, err := mgr.Retrieve(ctx, "video_gone_000000000000", "anything", 3)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestRetrieveEmptyCollection(t *testing.T) {
	ctx := context.Background()
	mgr, st, _ := newTestManagerWithStore(t)

	require.NoError(t, st.CreateOrReplace(ctx, "video_blank_000000000000"))
	_, err := mgr.Retrieve(ctx, "video_blank_000000000000", "anything", 3)
	require.ErrorIs(t, err, appErr.ErrEmptyResult)
}

func TestRetrieveEmptyQuestion(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	_, err := mgr.Retrieve(ctx, "video_any", " ", 3)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestBuildContext(t *testing.T) {
	hits := []store.Hit{
		{Document: "first chunk"},
		{Document: "second chunk"},
	}
	require.Equal(t, "first chunk\n\nsecond chunk", BuildContext(hits))
	require.Equal(t, "", BuildContext(nil))
}

func TestDrop(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	name, _, err := mgr.Ingest(ctx, "sess", transcriptFixture())
	require.NoError(t, err)

	removed, err := mgr.Drop(ctx, name)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = mgr.Drop(ctx, name)
	require.NoError(t, err)
	require.False(t, removed)
}
