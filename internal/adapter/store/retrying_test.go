package store

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyrag/internal/domain"
	"tinyrag/internal/retry"
)

// flakyStore fails the first failures queries with err.
type flakyStore struct {
	*MemoryStore
	failures int
	err      error
	queries  int
}

func (s *flakyStore) Query(ctx context.Context, vector []float32, k int, ticker string) ([]domain.ContextResult, error) {
	s.queries++
	if s.queries <= s.failures {
		return nil, s.err
	}
	return s.MemoryStore.Query(ctx, vector, k, ticker)
}

func fastPolicy() retry.Policy {
	p := retry.NewPolicy(nil)
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = time.Millisecond
	return p
}

func TestRetryingStore_RecoversFromTransientFailures(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(testDim), failures: 2, err: syscall.ECONNREFUSED}
	ctx := context.Background()
	require.NoError(t, inner.Insert(ctx, []string{"a"}, [][]float32{{1, 0, 0}}, "AAPL", ""))

	st := NewRetryingStore(inner, fastPolicy())
	results, err := st.Query(ctx, []float32{1, 0, 0}, 1, "")

	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 3, inner.queries)
}

func TestRetryingStore_GivesUpWithOriginalError(t *testing.T) {
	shutdown := &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"}
	inner := &flakyStore{MemoryStore: NewMemoryStore(testDim), failures: 10, err: shutdown}

	st := NewRetryingStore(inner, fastPolicy())
	_, err := st.Query(context.Background(), []float32{1, 0, 0}, 1, "")

	assert.Same(t, shutdown, err)
	assert.Equal(t, 3, inner.queries)
}

func TestRetryingStore_DoesNotRetryPermanentErrors(t *testing.T) {
	syntax := &pgconn.PgError{Code: "42601"}
	inner := &flakyStore{MemoryStore: NewMemoryStore(testDim), failures: 10, err: syntax}

	st := NewRetryingStore(inner, fastPolicy())
	_, err := st.Query(context.Background(), []float32{1, 0, 0}, 1, "")

	assert.Same(t, syntax, err)
	assert.Equal(t, 1, inner.queries)
}
