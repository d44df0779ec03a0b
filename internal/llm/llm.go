package llm

import (
	"context"
	"errors"
)

// Client abstracts the language-generation backend.
type Client interface {
	Generate(ctx context.Context, input GenerateInput) (string, error)
}

// GenerateInput carries the rendered prompts for one analysis.
type GenerateInput struct {
	SystemPrompt string
	UserPrompt   string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient stands in when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderClient) Generate(ctx context.Context, input GenerateInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}
