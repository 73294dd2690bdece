package store

import (
	"fmt"
	"math"
	"sort"

	"tinyrag/internal/domain"
)

// record is one stored chunk. IDs grow monotonically with insertion order.
type record struct {
	ID        uint64    `json:"-"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
	Ticker    string    `json:"ticker,omitempty"`
	Source    string    `json:"source,omitempty"`
}

func validateInsert(chunks []string, vectors [][]float32, dimension int) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrLengthMismatch, len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", domain.ErrDimensionMismatch, i, len(v), dimension)
		}
	}
	return nil
}

func validateQuery(vector []float32, k, dimension int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(vector) != dimension {
		return fmt.Errorf("%w: query has %d dimensions, expected %d", domain.ErrDimensionMismatch, len(vector), dimension)
	}
	return nil
}

// rank filters records by ticker and returns the k nearest by cosine
// distance. Records must be in insertion order; the sort is stable so equal
// distances keep that order. A stored vector whose length differs from the
// query fails the whole ranking.
func rank(query []float32, records []record, k int, ticker string) ([]domain.ContextResult, error) {
	type scored struct {
		rec      record
		distance float64
	}

	scores := make([]scored, 0, len(records))
	for _, r := range records {
		if ticker != "" && r.Ticker != ticker {
			continue
		}
		d, err := cosineDistance(query, r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		scores = append(scores, scored{rec: r, distance: d})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].distance < scores[j].distance
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.ContextResult, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ContextResult{
			Content:  scores[i].rec.Content,
			Ticker:   scores[i].rec.Ticker,
			Source:   scores[i].rec.Source,
			Distance: scores[i].distance,
		}
	}
	return results, nil
}

// cosineDistance is 1 - cosine similarity. A zero vector is treated as
// orthogonal to everything.
func cosineDistance(a, b []float32) (float64, error) {
	sim, err := cosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d dimensions", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
