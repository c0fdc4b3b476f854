// Package kb turns transcripts into queryable per-video knowledge bases.
package kb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vidrag/vidrag/internal/ai"
	"github.com/vidrag/vidrag/internal/chunker"
	"github.com/vidrag/vidrag/internal/model"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
	"github.com/vidrag/vidrag/internal/store"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"

	collectionPrefix = "video_"
	titlePrefixLimit = 20
	hashHexLen       = 12
)

type Options struct {
	ChunkSize     int `json:"chunk_size"`
	Overlap       int `json:"overlap"`
	MinChunkChars int `json:"min_chunk_chars"`
	TopK          int `json:"top_k"`
}

func (o *Options) fill() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = chunker.DefaultChunkSize
	}
	if o.Overlap < 0 {
		o.Overlap = chunker.DefaultOverlap
	}
	if o.MinChunkChars <= 0 {
		o.MinChunkChars = 10
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
}

// Manager owns the chunk-embed-store pipeline on the write side and the
// embed-query pipeline on the read side.
type Manager struct {
	store    store.Store
	embedder ai.IEmbedder
	opts     Options
}

func NewManager(st store.Store, embedder ai.IEmbedder, opts Options) *Manager {
	opts.fill()
	return &Manager{store: st, embedder: embedder, opts: opts}
}

// CollectionName derives a stable collection name from the owning scope
// and the transcript. Within one scope the same video URL always maps to
// the same collection, so re-processing replaces its knowledge base instead
// of leaking a second copy. The scope (the session id) is part of the hash
// seed: two sessions processing the same URL own separate collections, so
// one session's delete can never break the other's library.
func CollectionName(scope string, t *model.Transcript) string {
	seed := t.SourceURL
	if strings.TrimSpace(seed) == "" {
		seed = t.Text
	}
	sum := sha256.Sum256([]byte(scope + "|" + seed))
	return collectionPrefix + sanitizeTitle(t.Title) + "_" + hex.EncodeToString(sum[:])[:hashHexLen]
}

func sanitizeTitle(title string) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
		if sb.Len() >= titlePrefixLimit {
			break
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return "video"
	}
	return out
}

// Ingest chunks the transcript, embeds every chunk and atomically replaces
// the scope's collection for this video. All embedding happens before the
// first store write, so an embedding failure leaves no half-built
// collection behind.
func (m *Manager) Ingest(ctx context.Context, scope string, t *model.Transcript) (string, int, error) {
	if t == nil || strings.TrimSpace(t.Text) == "" {
		return "", 0, fmt.Errorf("%w: transcript text is empty", appErr.ErrEmptyContent)
	}

	chunks := chunker.Split(t.Text, m.opts.ChunkSize, m.opts.Overlap)
	kept := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len([]rune(chunk)) > m.opts.MinChunkChars {
			kept = append(kept, chunk)
		}
	}
	if len(kept) == 0 {
		return "", 0, fmt.Errorf("%w: no usable chunks in transcript", appErr.ErrEmptyContent)
	}

	entries := make([]store.Entry, 0, len(kept))
	for i, chunk := range kept {
		vec, err := m.embedder.Embed(ctx, chunk, taskTypeDocument)
		if err != nil {
			return "", 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		entries = append(entries, store.Entry{
			ID:       fmt.Sprintf("chunk_%d", i),
			Document: chunk,
			Meta: model.ChunkMeta{
				VideoTitle: t.Title,
				Uploader:   t.Uploader,
				ChunkIndex: i,
			},
			Vector: vec,
		})
	}

	name := CollectionName(scope, t)
	if err := m.store.Replace(ctx, name, entries); err != nil {
		return "", 0, fmt.Errorf("store collection %s: %w", name, err)
	}
	return name, len(entries), nil
}

// Retrieve embeds the question and returns the nearest chunks from one
// collection. k <= 0 uses the configured default.
func (m *Manager) Retrieve(ctx context.Context, collection, question string, k int) ([]store.Hit, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", appErr.ErrInvalid)
	}
	if k <= 0 {
		k = m.opts.TopK
	}
	vec, err := m.embedder.Embed(ctx, question, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := m.store.Query(ctx, collection, vec, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: no chunks retrieved from %s", appErr.ErrEmptyResult, collection)
	}
	return hits, nil
}

// BuildContext concatenates retrieved chunks into the prompt context block,
// nearest first.
func BuildContext(hits []store.Hit) string {
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		parts = append(parts, hit.Document)
	}
	return strings.Join(parts, "\n\n")
}

// Drop removes a video's collection. Missing collections are not an error.
func (m *Manager) Drop(ctx context.Context, collection string) (bool, error) {
	return m.store.Delete(ctx, collection)
}
