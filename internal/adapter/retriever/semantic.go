package retriever

import (
	"context"
	"fmt"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

// SemanticRetriever embeds the query and asks the vector store for its
// nearest chunks. Nothing is cached between calls.
type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
}

func NewSemanticRetriever(vectorStore port.VectorStore, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
	}
}

// Retrieve returns at most k passages ordered by ascending distance. An empty
// ticker searches every company.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, k int, ticker string) ([]domain.ContextResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	vector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.vectorStore.Query(ctx, vector, k, ticker)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
