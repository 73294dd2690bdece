package store

import (
	"context"
	"fmt"
	"strings"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

// Open returns the vector store for url. Supported schemes:
//
//	postgres://, postgresql://  PostgreSQL with pgvector
//	bolt://path                 embedded bbolt file
//	memory://                   process memory
func Open(ctx context.Context, url string, dimension int) (port.VectorStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidConfig, dimension)
	}

	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return nil, fmt.Errorf("%w: store url %q has no scheme", domain.ErrInvalidConfig, url)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return NewPGVectorStore(ctx, url, dimension)
	case "bolt":
		if rest == "" {
			return nil, fmt.Errorf("%w: bolt url needs a file path", domain.ErrInvalidConfig)
		}
		return NewBoltStore(rest, dimension)
	case "memory":
		return NewMemoryStore(dimension), nil
	default:
		return nil, fmt.Errorf("%w: unsupported store scheme %q", domain.ErrInvalidConfig, scheme)
	}
}
