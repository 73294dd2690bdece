package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

const (
	// NoContextAnswer is returned, without calling the generator, when
	// retrieval finds nothing.
	NoContextAnswer = "No relevant context found."

	// PreviewRunes bounds the content preview attached to each source.
	PreviewRunes = 200
)

// AnswerUseCase retrieves passages, composes a grounded prompt and asks the
// generator for a cited answer. Retries belong to the retriever and generator.
type AnswerUseCase struct {
	retriever port.Retriever
	generator port.Generator
	logger    *slog.Logger
}

func NewAnswerUseCase(retriever port.Retriever, generator port.Generator, logger *slog.Logger) *AnswerUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AnswerUseCase{
		retriever: retriever,
		generator: generator,
		logger:    logger,
	}
}

// Answer answers query using up to k passages, restricted to ticker when it
// is non-empty.
func (u *AnswerUseCase) Answer(ctx context.Context, query string, k int, ticker string) (domain.Answer, error) {
	start := time.Now()

	contexts, err := u.retriever.Retrieve(ctx, query, k, ticker)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(contexts) == 0 {
		u.logger.Info("no_context", "ticker", ticker, "k", k)
		return domain.Answer{Text: NoContextAnswer, Sources: []domain.Source{}}, nil
	}

	prompt := ComposePrompt(query, contexts)
	text, err := u.generator.Generate(ctx, prompt)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generation failed: %w", err)
	}

	sources := make([]domain.Source, len(contexts))
	for i, c := range contexts {
		sources[i] = domain.Source{Ticker: c.Ticker, Preview: Preview(c.Content, PreviewRunes)}
	}

	u.logger.Info("answered",
		"ticker", ticker,
		"k", k,
		"sources", len(sources),
		"model", u.generator.ModelName(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return domain.Answer{Text: text, Sources: sources}, nil
}

// Preview returns the first n runes of s, with "..." appended when s was cut.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
