package pipeline

import "github.com/civicline/araldo/internal/embedding"

// Chunker splits document text into contiguous pieces that fit the embedding
// token budget. Text that already fits is returned unchanged as one chunk.
type Chunker struct {
	tokenizer embedding.Tokenizer
	maxTokens int
}

// NewChunker returns a chunker with the given token budget per chunk.
func NewChunker(tokenizer embedding.Tokenizer, maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	return &Chunker{tokenizer: tokenizer, maxTokens: maxTokens}
}

// Split breaks text into chunks of at most the token budget. Chunks are
// contiguous, cover all tokens, and come back in document order. Empty or
// whitespace-only text yields no chunks.
func (c *Chunker) Split(text string) []string {
	count := c.tokenizer.CountTokens(text)
	if count == 0 {
		return nil
	}
	if count <= c.maxTokens {
		return []string{text}
	}

	tokens := c.tokenizer.SplitTokens(text)
	chunks := make([]string, 0, (len(tokens)+c.maxTokens-1)/c.maxTokens)
	for start := 0; start < len(tokens); start += c.maxTokens {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.tokenizer.JoinTokens(tokens[start:end]))
	}
	return chunks
}
