// Package chunker splits transcript text into overlapping bounded-length
// segments for embedding and retrieval.
package chunker

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// boundary separators in preference order. A window is cut at the latest
// paragraph break it contains, then sentence end, then line break, then
// word gap, and only as a last resort mid-word.
var separators = []string{"\n\n", ". ", "! ", "? ", "\n", " "}

// Split cuts text into chunks of at most chunkSize characters. The window
// advances chunkSize-overlap characters each step, so the tail of chunk i
// reappears at the head of chunk i+1. Whitespace-only chunks are never
// emitted. Pure and deterministic.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			// overlap would stall the window; step past it
			next = end
		}
		start = next
	}
	return chunks
}

// cutPoint moves end back to the cleanest boundary inside (start, end].
// Boundaries in the first half of the window are ignored so a stray break
// near the window start cannot produce degenerate slivers.
func cutPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	floor := len(window) / 2
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx <= floor {
			continue
		}
		// keep sentence punctuation with its chunk, drop the trailing space
		cut := idx + len(sep)
		if sep == " " || sep == "\n" || sep == "\n\n" {
			cut = idx
		}
		return start + len([]rune(window[:cut]))
	}
	return end
}
