package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"tinyrag/internal/adapter/analyzer"
	"tinyrag/internal/adapter/cache"
	"tinyrag/internal/adapter/chunker"
	"tinyrag/internal/adapter/embedding"
	"tinyrag/internal/adapter/llm"
	"tinyrag/internal/adapter/retriever"
	"tinyrag/internal/adapter/store"
	"tinyrag/internal/adapter/ticker"
	"tinyrag/internal/port"
	"tinyrag/internal/usecase"
)

// components holds the pipeline built from the loaded config.
type components struct {
	store     port.VectorStore
	embedder  port.Embedder
	generator port.Generator
	retriever port.Retriever
	tickers   *ticker.Lexicon
}

func (c *components) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func openStore(ctx context.Context) (port.VectorStore, error) {
	st, err := store.Open(ctx, cfg.Store.URL, cfg.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	policy := cfg.RetryPolicy(store.IsTransient)
	policy.Logger = lg
	return store.NewRetryingStore(st, policy), nil
}

func newEmbedder() *embedding.Embedder {
	var load embedding.Loader
	switch cfg.Embedding.Provider {
	case "hash":
		load = embedding.HashLoader(cfg.Embedding.Dimension)
	default:
		load = embedding.OllamaLoader(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	}
	return embedding.NewEmbedder(load, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
}

func newGenerator() port.Generator {
	gen := llm.NewOllamaGenerator(cfg.Generation.BaseURL, cfg.Generation.Model, cfg.Generation.Timeout)
	policy := cfg.RetryPolicy(llm.IsTransient)
	policy.Logger = lg
	return llm.NewRetryingGenerator(gen, policy)
}

// buildComponents wires the query side. cacheQueries puts an LRU of query
// embeddings in front of the embedder.
func buildComponents(ctx context.Context, cacheQueries bool) (*components, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	var emb port.Embedder = newEmbedder()
	if cacheQueries && cfg.Retrieve.QueryCacheSize > 0 {
		emb = cache.NewCachedEmbedder(emb, cache.NewVectorCache(cfg.Retrieve.QueryCacheSize, cfg.Retrieve.QueryCacheTTL))
	}

	return &components{
		store:     st,
		embedder:  emb,
		generator: newGenerator(),
		retriever: retriever.NewSemanticRetriever(st, emb),
		tickers:   ticker.NewLexicon(cfg.Tickers),
	}, nil
}

func newChunker() (port.Chunker, error) {
	tok, err := analyzer.NewBPETokenizer(cfg.Chunking.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return chunker.NewWindowChunker(cfg.Chunking.ChunkTokens, cfg.Chunking.ChunkOverlap, tok)
}

// isTransient reports failures a caller may retry later: backend outages
// from either the store or the generation service.
func isTransient(err error) bool {
	return store.IsTransient(err) || llm.IsTransient(err)
}

func newAnswerUseCase(c *components) *usecase.AnswerUseCase {
	return usecase.NewAnswerUseCase(c.retriever, c.generator, lg)
}

func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetRootDir(), p)
}
