package chunker

import (
	"strings"
	"testing"
)

func TestSplit_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "spaces", text: "   "},
		{name: "newlines", text: "\n\n\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Split(tt.text, 1000, 100); got != nil {
				t.Errorf("Split(%q) = %v, want nil", tt.text, got)
			}
		})
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "Cats are mammals. Dogs are mammals too."
	got := Split(text, 1000, 100)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want %q", got[0], text)
	}
}

func TestSplit_BoundedSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	for _, chunk := range Split(text, 1000, 100) {
		if len([]rune(chunk)) > 1000 {
			t.Errorf("chunk exceeds size bound: %d runes", len([]rune(chunk)))
		}
		if strings.TrimSpace(chunk) == "" {
			t.Error("whitespace-only chunk emitted")
		}
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	text := strings.Repeat("Sentence number one is here. Sentence number two follows it. ", 100)
	chunks := Split(text, 1000, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 0; i < len(chunks)-1; i++ {
		if !sharesOverlap(chunks[i], chunks[i+1]) {
			t.Errorf("chunks %d and %d share no overlap region", i, i+1)
		}
	}
}

// sharesOverlap reports whether some suffix of a reappears near the start
// of b, which is what the stepped window guarantees.
func sharesOverlap(a, b string) bool {
	ar := []rune(a)
	for probe := 80; probe >= 20; probe -= 10 {
		if len(ar) < probe {
			continue
		}
		if strings.Contains(b, string(ar[len(ar)-probe:])) {
			return true
		}
	}
	return false
}

func TestSplit_CoversFullSpan(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		sb.WriteString("Paragraph content with a marker word each time.\n\n")
	}
	text := strings.TrimSpace(sb.String())
	chunks := Split(text, 1000, 100)

	// every position of the original text must be covered by some chunk
	joined := strings.Join(chunks, "\n")
	wantWords := strings.Fields(text)
	gotWords := strings.Fields(joined)
	if len(gotWords) < len(wantWords) {
		t.Errorf("chunks cover %d words, original has %d", len(gotWords), len(wantWords))
	}
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	// one long paragraph of sentences: cuts should land after periods,
	// not mid-word
	text := strings.Repeat("Each of these sentences is reasonably long and self contained. ", 60)
	chunks := Split(text, 500, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: ...%q", i, chunk[len(chunk)-20:])
		}
	}
}

func TestSplit_HardCutWithoutBoundaries(t *testing.T) {
	// no separators at all: must still make progress and stay bounded
	text := strings.Repeat("x", 5000)
	chunks := Split(text, 1000, 100)
	if len(chunks) < 5 {
		t.Fatalf("expected at least 5 chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Errorf("chunk exceeds size bound: %d", len(chunk))
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Determinism matters for idempotent re-ingestion. ", 80)
	a := Split(text, 1000, 100)
	b := Split(text, 1000, 100)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
