package usecase

import (
	"context"
	"sync"

	"tinyrag/internal/domain"
)

type fakeRetriever struct {
	results []domain.ContextResult
	err     error

	mu     sync.Mutex
	calls  int
	query  string
	k      int
	ticker string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int, ticker string) ([]domain.ContextResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.query, f.k, f.ticker = query, k, ticker
	return f.results, f.err
}

type fakeGenerator struct {
	reply string
	err   error

	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func (f *fakeGenerator) Ping(context.Context) error {
	return f.err
}

func (f *fakeGenerator) ModelName() string {
	return "fake"
}

type staticTickers map[string]string

func (s staticTickers) Infer(query string) (string, bool) {
	t, ok := s[query]
	return t, ok
}
