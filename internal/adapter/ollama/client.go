// Package ollama builds OpenAI-compatible clients for a local Ollama server.
package ollama

import (
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultHost           = "http://localhost:11434"
	DefaultEmbeddingModel = "all-minilm"
	DefaultLLMModel       = "llama3.2"

	// Ollama ignores the key but the client insists on one.
	placeholderAPIKey = "ollama"
)

// BaseURL returns the OpenAI-compatible endpoint root for an Ollama host.
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}
	if !strings.HasSuffix(host, "/v1") {
		host += "/v1"
	}
	return host + "/"
}

// NewClient returns a client for host. Retries are disabled here; callers
// decide which failures to retry.
func NewClient(host string, timeout time.Duration) openai.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(BaseURL(host)),
		option.WithAPIKey(placeholderAPIKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return openai.NewClient(opts...)
}
