package chunking

import (
	"strings"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// Default window geometry, in tokens.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// CountTokens returns the number of whitespace-delimited tokens in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Split segments text into token windows of chunkSize tokens, each window
// overlapping the previous by overlap tokens. The final partial window is
// still emitted. Input shorter than one window (including empty input)
// yields exactly one chunk: the whole input.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		// The window must advance by at least one token.
		overlap = chunkSize - 1
	}

	tokens := strings.Fields(text)
	if len(tokens) < chunkSize {
		return []string{text}
	}

	// The window always advances by chunkSize-overlap, so a full window
	// ending exactly on the last token is still followed by one trailing
	// overlap window.
	var chunks []string
	for start := 0; start < len(tokens); start += chunkSize - overlap {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
	}
	return chunks
}

// SplitEnhanced splits text and runs the metadata extractor over every
// chunk. docRef, when non-nil, is copied onto each chunk's metadata so a
// chunk remains self-describing once it leaves its document.
func SplitEnhanced(text string, docRef *domain.DocumentRef, chunkSize, overlap int) []domain.ChunkPayload {
	raw := Split(text, chunkSize, overlap)

	payloads := make([]domain.ChunkPayload, 0, len(raw))
	for i, chunkText := range raw {
		meta := Extract(chunkText)
		meta.ChunkIndex = i
		meta.ChunkLength = len(chunkText)
		meta.TokenCount = CountTokens(chunkText)
		meta.Document = docRef

		payloads = append(payloads, domain.ChunkPayload{
			Text:     chunkText,
			Metadata: meta,
		})
	}
	return payloads
}
