// Package embedder turns text into vectors using a remote embedding model.
package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// DefaultOllamaModel is the Ollama model used when none is configured.
const DefaultOllamaModel = "nomic-embed-text"

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Config selects and configures a provider.
type Config struct {
	Provider   string // ollama, openai
	Model      string
	Endpoint   string
	APIKey     string
	Dimensions int
}

// DefaultModel returns the model used for provider when none is
// configured, or "" for an unknown provider.
func DefaultModel(provider string) string {
	switch provider {
	case "", "ollama":
		return DefaultOllamaModel
	case "openai":
		return string(openai.SmallEmbedding3)
	}
	return ""
}

// New returns the embedder for cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(cfg.Endpoint, cfg.Model), nil
	case "openai":
		return NewOpenAIEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
