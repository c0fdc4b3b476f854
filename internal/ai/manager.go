package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	// Timeout bounds a single generation call, in seconds. Retrieval has
	// no timeout of its own; only the generation collaborator does.
	Timeout int
	// MaxContextChars truncates oversized retrieval context before it is
	// templated into the prompt. Zero disables the cap.
	MaxContextChars int
}

// Manager owns prompt templating for answer generation and fronts the
// shared embedder.
type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{generator: generator, embedder: embedder, cfg: cfg}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, ErrUnavailable
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

// Answer generates a grounded reply to question using retrieved transcript
// context. The context must never be empty; callers gate on retrieval hits
// before reaching here.
func (m *Manager) Answer(ctx context.Context, question string, contextText string) (string, error) {
	if m.generator == nil {
		return "", ErrUnavailable
	}
	question = strings.TrimSpace(question)
	contextText = strings.TrimSpace(contextText)
	if question == "" || contextText == "" {
		return "", fmt.Errorf("question and context are required")
	}
	if m.cfg.MaxContextChars > 0 {
		// cut on a rune boundary so a multi-byte character is never split
		if runes := []rune(contextText); len(runes) > m.cfg.MaxContextChars {
			contextText = string(runes[:m.cfg.MaxContextChars])
		}
	}
	prompt := fmt.Sprintf(`Based on the following video transcript content, answer the user's question.

VIDEO CONTENT:
%s

USER QUESTION: %s

Answer based only on the video content. If the information isn't in the transcript, say so.`, contextText, question)

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(resp)
	if answer == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return answer, nil
}
