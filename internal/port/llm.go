package port

import "context"

// Generator represents a language model for text generation.
type Generator interface {
	// Generate sends a single user prompt and returns the completion text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Ping checks that the generation service is reachable.
	Ping(ctx context.Context) error

	// ModelName returns the name of the model.
	ModelName() string
}
