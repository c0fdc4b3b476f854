package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// groupGenerator tries each configured generator in order and returns the
// first success; the last error wins when all fail.
type groupGenerator struct {
	items []GeneratorEntry
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return items[0].Generator
	}
	return &groupGenerator{items: items}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		res, err := item.Generator.Generate(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("generator failed, trying next",
			zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", fmt.Errorf("generator not configured")
	}
	return "", lastErr
}

// groupEmbedder must NOT silently switch models mid-process: mixing
// vector spaces would corrupt every collection. It therefore only falls
// through while the primary has never succeeded.
type groupEmbedder struct {
	mu     sync.Mutex
	items  []EmbedderEntry
	active int
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return items[0].Embedder
	}
	return &groupEmbedder{items: items, active: -1}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	g.mu.Lock()
	active := g.active
	g.mu.Unlock()
	if active >= 0 {
		return g.items[active].Embedder.Embed(ctx, text, taskType)
	}
	var lastErr error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			g.mu.Lock()
			g.active = i
			g.mu.Unlock()
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed, trying next",
			zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return nil, lastErr
}

func (g *groupEmbedder) ModelName() string {
	g.mu.Lock()
	idx := g.active
	g.mu.Unlock()
	if idx < 0 {
		idx = 0
	}
	if g.items[idx].Embedder == nil {
		return ""
	}
	return g.items[idx].Embedder.ModelName()
}
