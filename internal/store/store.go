// Package store provides named, isolated vector collections. Every
// collection belongs to exactly one video; the store itself knows nothing
// about which collection is "active".
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/vidrag/vidrag/internal/model"
)

// Entry is one chunk row: document text, traceability metadata and its
// embedding vector.
type Entry struct {
	ID       string
	Document string
	Meta     model.ChunkMeta
	Vector   []float32
}

// Hit is one retrieval result, nearest first. Distance is cosine distance
// (0 identical, 2 opposite) for every backend.
type Hit struct {
	Document string
	Meta     model.ChunkMeta
	Distance float32
}

type Store interface {
	// CreateOrReplace drops any collection of this name and recreates it
	// empty, so re-ingesting the same video never accumulates duplicates.
	CreateOrReplace(ctx context.Context, name string) error
	// Add appends entries. Empty or duplicate ids fail with ErrInvalid.
	Add(ctx context.Context, name string, entries []Entry) error
	// Replace is CreateOrReplace+Add as one atomic unit: readers never
	// observe a partially populated collection.
	Replace(ctx context.Context, name string, entries []Entry) error
	// Query returns the k nearest entries. ErrNotFound when the collection
	// does not exist; an empty slice when it exists but holds nothing.
	Query(ctx context.Context, name string, vector []float32, k int) ([]Hit, error)
	// Delete is idempotent and reports whether anything was removed.
	Delete(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(typ string, args interface{}) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return nil, fmt.Errorf("store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported store type: %s", typ)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
