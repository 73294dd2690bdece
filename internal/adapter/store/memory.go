package store

import (
	"context"
	"sync"

	"tinyrag/internal/domain"
)

// MemoryStore keeps records in process memory. Useful for tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   []record
	nextID    uint64
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension}
}

func (s *MemoryStore) EnsureSchema(context.Context) error {
	return nil
}

func (s *MemoryStore) Insert(_ context.Context, chunks []string, vectors [][]float32, ticker, source string) error {
	if err := validateInsert(chunks, vectors, s.dimension); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		s.nextID++
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		s.records = append(s.records, record{
			ID:        s.nextID,
			Content:   chunks[i],
			Embedding: vec,
			Ticker:    ticker,
			Source:    source,
		})
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, k int, ticker string) ([]domain.ContextResult, error) {
	if err := validateQuery(vector, k, s.dimension); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return rank(vector, s.records, k, ticker)
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
