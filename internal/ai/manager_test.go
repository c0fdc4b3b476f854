package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	prompt string
	reply  string
	err    error
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func TestManagerAnswer_TemplatesContextAndQuestion(t *testing.T) {
	gen := &recordingGenerator{reply: "Cats are mammals."}
	m := NewManager(gen, nil, ManagerConfig{})

	answer, err := m.Answer(context.Background(), "What is a cat?", "Cats are mammals. Dogs are mammals too.")
	require.NoError(t, err)
	require.Equal(t, "Cats are mammals.", answer)
	require.Contains(t, gen.prompt, "VIDEO CONTENT:\nCats are mammals.")
	require.Contains(t, gen.prompt, "USER QUESTION: What is a cat?")
}

func TestManagerAnswer_RejectsEmptyInput(t *testing.T) {
	m := NewManager(&recordingGenerator{reply: "x"}, nil, ManagerConfig{})

	_, err := m.Answer(context.Background(), "", "some context")
	require.Error(t, err)
	_, err = m.Answer(context.Background(), "question", "   ")
	require.Error(t, err)
}

func TestManagerAnswer_TruncatesOversizedContext(t *testing.T) {
	gen := &recordingGenerator{reply: "ok"}
	m := NewManager(gen, nil, ManagerConfig{MaxContextChars: 50})

	_, err := m.Answer(context.Background(), "q", strings.Repeat("a", 500))
	require.NoError(t, err)
	require.NotContains(t, gen.prompt, strings.Repeat("a", 51))
}

func TestManagerAnswer_TruncatesOnRuneBoundary(t *testing.T) {
	gen := &recordingGenerator{reply: "ok"}
	m := NewManager(gen, nil, ManagerConfig{MaxContextChars: 7})

	_, err := m.Answer(context.Background(), "q", strings.Repeat("日本語", 10))
	require.NoError(t, err)
	require.True(t, utf8.ValidString(gen.prompt))
	require.Contains(t, gen.prompt, "日本語日本語日")
	require.NotContains(t, gen.prompt, "日本語日本語日本")
}

func TestManagerAnswer_NoGenerator(t *testing.T) {
	m := NewManager(nil, nil, ManagerConfig{})
	_, err := m.Answer(context.Background(), "q", "c")
	require.ErrorIs(t, err, ErrUnavailable)
}
