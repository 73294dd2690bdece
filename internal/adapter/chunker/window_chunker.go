package chunker

import (
	"fmt"
	"strings"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

const (
	DefaultChunkTokens  = 400
	DefaultChunkOverlap = 100
)

// WindowChunker splits text into overlapping fixed-size token windows.
type WindowChunker struct {
	size      int
	overlap   int
	tokenizer port.Tokenizer
}

func NewWindowChunker(size, overlap int, tokenizer port.Tokenizer) (*WindowChunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", domain.ErrInvalidConfig)
	}
	return &WindowChunker{
		size:      size,
		overlap:   overlap,
		tokenizer: tokenizer,
	}, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", domain.ErrInvalidConfig, size, overlap)
	}
	return nil
}

// Chunk splits the document content and tags each chunk with the document's
// ticker and source.
func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	chunks := c.windows(doc.Content)
	for i := range chunks {
		chunks[i].Ticker = doc.Ticker
		chunks[i].Source = doc.Source
	}
	return chunks, nil
}

// Split returns the chunk texts for text.
func (c *WindowChunker) Split(text string) []string {
	chunks := c.windows(text)
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}

func (c *WindowChunker) windows(text string) []domain.Chunk {
	tokens := c.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	var chunks []domain.Chunk

	for start := 0; start < len(tokens); start += stride {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}

		piece := strings.TrimSpace(c.tokenizer.Decode(tokens[start:end]))
		if piece == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:       piece,
			TokenStart: start,
			TokenCount: end - start,
		})
	}

	return chunks
}

// Split chunks text with a one-off chunker.
func Split(text string, size, overlap int, tokenizer port.Tokenizer) ([]string, error) {
	c, err := NewWindowChunker(size, overlap, tokenizer)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}
