package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"

	"tinyrag/internal/adapter/ollama"
	"tinyrag/internal/port"
)

// OllamaModel embeds text through Ollama's OpenAI-compatible embeddings API.
type OllamaModel struct {
	client    openai.Client
	model     string
	dimension int
}

// OllamaLoader returns a Loader that connects to host and probes model once
// to learn its output dimension.
func OllamaLoader(host, model string, timeout time.Duration) Loader {
	return func(ctx context.Context) (port.EmbeddingModel, error) {
		return NewOllamaModel(ctx, host, model, timeout)
	}
}

func NewOllamaModel(ctx context.Context, host, model string, timeout time.Duration) (*OllamaModel, error) {
	if model == "" {
		model = ollama.DefaultEmbeddingModel
	}
	m := &OllamaModel{
		client: ollama.NewClient(host, timeout),
		model:  model,
	}

	probe, err := m.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, fmt.Errorf("failed to probe embedding model %s: %w", model, err)
	}
	if len(probe) != 1 || len(probe[0]) == 0 {
		return nil, fmt.Errorf("embedding model %s returned an empty probe vector", model)
	}
	m.dimension = len(probe[0])
	return m, nil
}

func (m *OllamaModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(m.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", idx)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[idx] = vec
	}
	return out, nil
}

func (m *OllamaModel) Dimension() int {
	return m.dimension
}

func (m *OllamaModel) ModelName() string {
	return m.model
}
