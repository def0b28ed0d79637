package wordpair

//go:generate mockgen -package=mocks -destination=mocks/mock_provider.go github.com/KirkDiggler/impostor/internal/services/wordpair Provider

import "context"

// Provider produces the (main, decoy) words for a new game
type Provider interface {
	// GenerateWordPair returns two distinct, non-empty words
	GenerateWordPair(ctx context.Context) (*WordPair, error)
}
