package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashModel_Deterministic(t *testing.T) {
	m := NewHashModel(DefaultDimension)
	ctx := context.Background()

	a, err := m.Embed(ctx, []string{"Apple iPhone revenue"})
	require.NoError(t, err)
	b, err := m.Embed(ctx, []string{"Apple iPhone revenue"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], DefaultDimension)
}

func TestHashModel_Normalised(t *testing.T) {
	m := NewHashModel(64)

	vecs, err := m.Embed(context.Background(), []string{"cloud services growth in the data center segment"})
	require.NoError(t, err)

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashModel_EmptyTextIsZeroVector(t *testing.T) {
	m := NewHashModel(32)

	vecs, err := m.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	require.Len(t, vecs[0], 32)
	for _, v := range vecs[0] {
		assert.Zero(t, v)
	}
}

func TestHashModel_SharedTermsAreCloser(t *testing.T) {
	m := NewHashModel(DefaultDimension)

	vecs, err := m.Embed(context.Background(), []string{
		"supply chain risk factors",
		"risk factors in the supply chain",
		"quarterly dividend declared",
	})
	require.NoError(t, err)

	related := cosine(vecs[0], vecs[1])
	unrelated := cosine(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
}
