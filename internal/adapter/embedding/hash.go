package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"tinyrag/internal/adapter/analyzer"
	"tinyrag/internal/port"
)

// HashModel is an offline embedding model using signed feature hashing of
// word terms and adjacent term pairs. Vectors are L2-normalised; text without
// terms maps to the zero vector.
type HashModel struct {
	dimension int
	tokenizer *analyzer.WordTokenizer
}

func NewHashModel(dimension int) *HashModel {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashModel{
		dimension: dimension,
		tokenizer: analyzer.NewWordTokenizer(),
	}
}

// HashLoader returns a Loader for a HashModel of the given dimension.
func HashLoader(dimension int) Loader {
	return func(context.Context) (port.EmbeddingModel, error) {
		return NewHashModel(dimension), nil
	}
}

func (m *HashModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *HashModel) vector(text string) []float32 {
	vec := make([]float32, m.dimension)
	terms := m.tokenizer.Terms(text)

	for i, term := range terms {
		m.add(vec, term, 1)
		if i > 0 {
			m.add(vec, terms[i-1]+" "+term, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (m *HashModel) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(m.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (m *HashModel) Dimension() int {
	return m.dimension
}

func (m *HashModel) ModelName() string {
	return "hash"
}
