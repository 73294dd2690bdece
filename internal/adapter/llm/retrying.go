package llm

import (
	"context"

	"tinyrag/internal/port"
	"tinyrag/internal/retry"
)

// RetryingGenerator retries Generate on connection and timeout failures.
type RetryingGenerator struct {
	port.Generator
	policy retry.Policy
}

func NewRetryingGenerator(inner port.Generator, policy retry.Policy) *RetryingGenerator {
	return &RetryingGenerator{
		Generator: inner,
		policy:    policy.WithRetryable(IsTransient),
	}
}

func (g *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return retry.Value(ctx, g.policy, "llm.generate", func(ctx context.Context) (string, error) {
		return g.Generator.Generate(ctx, prompt)
	})
}
