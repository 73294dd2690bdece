package embedding

import (
	"context"
	"fmt"
	"sync"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

const (
	// DefaultDimension matches all-MiniLM-L6-v2.
	DefaultDimension = 384
	DefaultBatchSize = 32
)

// Loader produces the embedding model. It is called at most once per Embedder.
type Loader func(ctx context.Context) (port.EmbeddingModel, error)

// Embedder loads its model lazily on first use and shares it across callers.
type Embedder struct {
	load      Loader
	dimension int
	batchSize int

	once    sync.Once
	model   port.EmbeddingModel
	loadErr error
}

func NewEmbedder(load Loader, dimension, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		load:      load,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Model returns the loaded model, loading it on the first call. A failed
// load is remembered and returned to every later caller.
func (e *Embedder) Model(ctx context.Context) (port.EmbeddingModel, error) {
	e.once.Do(func() {
		model, err := e.load(context.WithoutCancel(ctx))
		if err != nil {
			e.loadErr = fmt.Errorf("%w: %v", domain.ErrModelLoad, err)
			return
		}
		if model.Dimension() != e.dimension {
			e.loadErr = fmt.Errorf("%w: %w: model %s produces %d dimensions, configured %d",
				domain.ErrModelLoad, domain.ErrDimensionMismatch, model.ModelName(), model.Dimension(), e.dimension)
			return
		}
		e.model = model
	})
	return e.model, e.loadErr
}

// Embed returns one vector per text in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	model, err := e.Model(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		vectors, err := model.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("model %s returned %d vectors for %d texts", model.ModelName(), len(vectors), len(batch))
		}
		for j, v := range vectors {
			if len(v) != e.dimension {
				return nil, fmt.Errorf("%w: text %d has %d dimensions, expected %d", domain.ErrDimensionMismatch, i+j, len(v), e.dimension)
			}
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) Dimension() int {
	return e.dimension
}
