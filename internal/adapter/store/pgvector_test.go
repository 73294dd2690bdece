package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database when TEST_DATABASE_URL is set, e.g.
// postgresql://postgres@localhost:5432/rag_test.
func openTestPG(t *testing.T) *PGVectorStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	st, err := NewPGVectorStore(ctx, url, testDim)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.pool.Exec(ctx, `DROP TABLE IF EXISTS documents`)
	require.NoError(t, err)
	return st
}

func TestPGVectorStore_ConcurrentEnsureSchema(t *testing.T) {
	st := openTestPG(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, st.EnsureSchema(ctx))
		}()
	}
	wg.Wait()
}

func TestPGVectorStore_InsertAndQuery(t *testing.T) {
	st := openTestPG(t)
	ctx := context.Background()
	require.NoError(t, st.EnsureSchema(ctx))

	require.NoError(t, st.Insert(ctx, []string{"near", "far"}, [][]float32{{1, 0, 0}, {0, 1, 0}}, "GOOGL", "googl.txt"))
	require.NoError(t, st.Insert(ctx, []string{"other"}, [][]float32{{1, 0, 0}}, "AMZN", "amzn.txt"))

	results, err := st.Query(ctx, []float32{1, 0, 0}, 5, "GOOGL")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Content)
	assert.Equal(t, "GOOGL", results[1].Ticker)

	results, err = st.Query(ctx, []float32{1, 0, 0}, 5, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Equal distances fall back to insertion order.
	assert.Equal(t, "near", results[0].Content)
	assert.Equal(t, "other", results[1].Content)
}

func TestPGVectorStore_RegistersVectorCodec(t *testing.T) {
	st := openTestPG(t)
	ctx := context.Background()
	require.NoError(t, st.EnsureSchema(ctx))

	conn, err := st.pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	_, ok := conn.Conn().TypeMap().TypeForName("vector")
	assert.True(t, ok, "vector type should be registered on pooled connections")

	var got pgvector.Vector
	require.NoError(t, conn.QueryRow(ctx, `SELECT $1::vector`, pgvector.NewVector([]float32{1, 2, 3})).Scan(&got))
	assert.Equal(t, []float32{1, 2, 3}, got.Slice())
}
