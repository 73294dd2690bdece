package usecase

import (
	"context"
	"strings"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

// RetrieveUseCase resolves the ticker filter for a question and fetches the
// matching passages.
type RetrieveUseCase struct {
	retriever port.Retriever
	tickers   port.TickerInferer
	topK      int
}

func NewRetrieveUseCase(retriever port.Retriever, tickers port.TickerInferer, topK int) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever: retriever,
		tickers:   tickers,
		topK:      topK,
	}
}

// RetrieveResult carries the passages and the ticker filter that was applied.
type RetrieveResult struct {
	Query    string                 `json:"query"`
	Ticker   string                 `json:"ticker,omitempty"`
	Contexts []domain.ContextResult `json:"contexts"`
}

// Retrieve uses ticker when given, otherwise infers one from the query.
// A k of zero means the configured default.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, k int, ticker string) (*RetrieveResult, error) {
	if k == 0 {
		k = u.topK
	}
	ticker = ResolveTicker(u.tickers, ticker, query)

	contexts, err := u.retriever.Retrieve(ctx, query, k, ticker)
	if err != nil {
		return nil, err
	}
	return &RetrieveResult{Query: query, Ticker: ticker, Contexts: contexts}, nil
}

// Prompt retrieves passages and returns the prompt that would be sent to
// the generator.
func (u *RetrieveUseCase) Prompt(ctx context.Context, query string, k int, ticker string) (string, *RetrieveResult, error) {
	res, err := u.Retrieve(ctx, query, k, ticker)
	if err != nil {
		return "", nil, err
	}
	return ComposePrompt(query, res.Contexts), res, nil
}

// ResolveTicker returns explicit when set, otherwise the ticker inferred from
// query, or "" for no filter. Explicit tickers are upper-cased to match the
// directory names filings are stored under.
func ResolveTicker(tickers port.TickerInferer, explicit, query string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return strings.ToUpper(t)
	}
	if tickers == nil {
		return ""
	}
	t, _ := tickers.Infer(query)
	return t
}
