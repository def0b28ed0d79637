package wordpair

import (
	"context"
	"errors"
	"fmt"

	"github.com/KirkDiggler/impostor/internal/ai"
)

const (
	mainWordPrompt  = "Generate a single common noun (one word only) that people can easily describe with related words. Examples: apple, car, book, tree. Just return the word, nothing else."
	decoyWordPrompt = "Generate a single word that is somewhat related to '%s' but different enough that someone describing it would seem suspicious. Just return the word, nothing else."

	mainTemperature  = 0.8
	decoyTemperature = 0.9
	maxTokens        = 10
)

// AIConfig holds configuration for the model-backed provider
type AIConfig struct {
	// Provider is the completion backend
	Provider ai.Provider

	// Model is passed to the backend on every call
	Model string
}

type aiProvider struct {
	provider ai.Provider
	model    string
}

// NewAI creates a provider that asks a language model for both words
func NewAI(cfg *AIConfig) (*aiProvider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Provider == nil {
		return nil, errors.New("ai provider cannot be nil")
	}

	return &aiProvider{
		provider: cfg.Provider,
		model:    cfg.Model,
	}, nil
}

// GenerateWordPair asks for a main word, then for a related decoy
func (p *aiProvider) GenerateWordPair(ctx context.Context) (*WordPair, error) {
	mainRaw, err := p.provider.Complete(ctx, &ai.Request{
		Model:       p.model,
		Prompt:      mainWordPrompt,
		Temperature: mainTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate main word: %w", err)
	}

	main := normalize(mainRaw)
	if main == "" {
		return nil, fmt.Errorf("%w: empty main word", ErrDegeneratePair)
	}

	decoyRaw, err := p.provider.Complete(ctx, &ai.Request{
		Model:       p.model,
		Prompt:      fmt.Sprintf(decoyWordPrompt, main),
		Temperature: decoyTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate decoy word: %w", err)
	}

	pair := &WordPair{
		Main:  main,
		Decoy: normalize(decoyRaw),
	}
	if !pair.Valid() {
		return nil, fmt.Errorf("%w: %q / %q", ErrDegeneratePair, pair.Main, pair.Decoy)
	}

	return pair, nil
}
