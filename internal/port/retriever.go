package port

import (
	"context"

	"tinyrag/internal/domain"
)

// Retriever finds passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, ticker string) ([]domain.ContextResult, error)
}

// TickerInferer guesses a ticker symbol from free text.
type TickerInferer interface {
	Infer(query string) (string, bool)
}
