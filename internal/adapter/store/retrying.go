package store

import (
	"context"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
	"tinyrag/internal/retry"
)

// RetryingStore retries schema, insert and query calls on transient
// failures. Ping is left alone so health checks stay fast.
type RetryingStore struct {
	port.VectorStore
	policy retry.Policy
}

func NewRetryingStore(inner port.VectorStore, policy retry.Policy) *RetryingStore {
	return &RetryingStore{
		VectorStore: inner,
		policy:      policy.WithRetryable(IsTransient),
	}
}

func (s *RetryingStore) EnsureSchema(ctx context.Context) error {
	return s.policy.Do(ctx, "store.ensure_schema", s.VectorStore.EnsureSchema)
}

func (s *RetryingStore) Insert(ctx context.Context, chunks []string, vectors [][]float32, ticker, source string) error {
	return s.policy.Do(ctx, "store.insert", func(ctx context.Context) error {
		return s.VectorStore.Insert(ctx, chunks, vectors, ticker, source)
	})
}

func (s *RetryingStore) Query(ctx context.Context, vector []float32, k int, ticker string) ([]domain.ContextResult, error) {
	return retry.Value(ctx, s.policy, "store.query", func(ctx context.Context) ([]domain.ContextResult, error) {
		return s.VectorStore.Query(ctx, vector, k, ticker)
	})
}
