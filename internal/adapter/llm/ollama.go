package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"

	"tinyrag/internal/adapter/ollama"
)

// OllamaGenerator answers prompts with a chat model served by Ollama.
type OllamaGenerator struct {
	client openai.Client
	model  string
}

func NewOllamaGenerator(host, model string, timeout time.Duration) *OllamaGenerator {
	if model == "" {
		model = ollama.DefaultLLMModel
	}
	return &OllamaGenerator{
		client: ollama.NewClient(host, timeout),
		model:  model,
	}
}

// Generate sends prompt as a single user message and waits for the full
// completion.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists the server's models.
func (g *OllamaGenerator) Ping(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx); err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	return nil
}

func (g *OllamaGenerator) ModelName() string {
	return g.model
}
