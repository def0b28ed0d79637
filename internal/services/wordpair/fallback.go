package wordpair

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// FallbackConfig holds configuration for the fallback chain
type FallbackConfig struct {
	// Primary is tried first
	Primary Provider

	// Secondary answers when the primary fails
	Secondary Provider

	Logger zerolog.Logger
}

type fallbackProvider struct {
	primary   Provider
	secondary Provider
	logger    zerolog.Logger
}

// NewFallback creates a provider that falls back to Secondary on any
// primary failure
func NewFallback(cfg *FallbackConfig) (*fallbackProvider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Primary == nil || cfg.Secondary == nil {
		return nil, errors.New("primary and secondary providers cannot be nil")
	}

	return &fallbackProvider{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		logger:    cfg.Logger,
	}, nil
}

// GenerateWordPair tries the primary, then the secondary
func (p *fallbackProvider) GenerateWordPair(ctx context.Context) (*WordPair, error) {
	pair, err := p.primary.GenerateWordPair(ctx)
	if err == nil {
		return pair, nil
	}

	p.logger.Warn().Err(err).Msg("word generation failed, using fallback pool")

	// The primary may have used up the caller's deadline
	return p.secondary.GenerateWordPair(context.WithoutCancel(ctx))
}
