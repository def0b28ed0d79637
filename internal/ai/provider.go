package ai

//go:generate mockgen -package=mocks -destination=mocks/mock_provider.go github.com/KirkDiggler/impostor/internal/ai Provider

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the model answered with no content
var ErrEmptyCompletion = errors.New("model returned no content")

// Request is a single chat completion
type Request struct {
	// Model is the provider-specific model name
	Model string

	// System is the optional system prompt
	System string

	// Prompt is the user message
	Prompt string

	// Temperature is passed through when positive
	Temperature float64

	// MaxTokens caps the answer length when positive
	MaxTokens int
}

// Provider is a large language model backend
type Provider interface {
	// Complete sends one request and returns the trimmed answer text
	Complete(ctx context.Context, req *Request) (string, error)
}
