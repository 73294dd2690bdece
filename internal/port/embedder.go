package port

import (
	"context"

	"tinyrag/internal/domain"
)

// EmbeddingModel is a loaded sentence-embedding model.
type EmbeddingModel interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorStore persists chunk embeddings and answers nearest-neighbour queries.
type VectorStore interface {
	// EnsureSchema creates the backing schema. Safe to call repeatedly and concurrently.
	EnsureSchema(ctx context.Context) error

	// Insert stores chunks with their vectors atomically. Either every row is stored or none.
	Insert(ctx context.Context, chunks []string, vectors [][]float32, ticker, source string) error

	// Query returns up to k records ordered by ascending cosine distance.
	// An empty ticker disables the filter.
	Query(ctx context.Context, vector []float32, k int, ticker string) ([]domain.ContextResult, error)

	Ping(ctx context.Context) error

	Close() error
}
