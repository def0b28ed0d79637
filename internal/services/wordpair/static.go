package wordpair

import (
	"context"
	"errors"

	"github.com/KirkDiggler/impostor/internal/common/random"
)

// StaticConfig holds configuration for the fixed pool provider
type StaticConfig struct {
	// Pairs is the pool, defaults to DefaultPairs
	Pairs []WordPair

	// Random picks the pair
	Random random.Source
}

type staticProvider struct {
	pairs  []WordPair
	random random.Source
}

// NewStatic creates a provider that draws from a fixed pool
func NewStatic(cfg *StaticConfig) (*staticProvider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Random == nil {
		return nil, errors.New("random source cannot be nil")
	}

	pairs := cfg.Pairs
	if len(pairs) == 0 {
		pairs = DefaultPairs
	}

	for i := range pairs {
		if !pairs[i].Valid() {
			return nil, errors.New("word pool contains a degenerate pair")
		}
	}

	return &staticProvider{
		pairs:  pairs,
		random: cfg.Random,
	}, nil
}

// GenerateWordPair returns a uniformly chosen pair from the pool
func (p *staticProvider) GenerateWordPair(ctx context.Context) (*WordPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pair := p.pairs[p.random.Intn(len(p.pairs))]
	return &pair, nil
}
