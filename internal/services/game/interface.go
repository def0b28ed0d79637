package game

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/impostor/internal/services/game Service

import "context"

// Service defines the interface for game operations
type Service interface {
	// CreateGame opens a new lobby with the host as its first player
	CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error)

	// JoinGame adds a player to a waiting game
	JoinGame(ctx context.Context, input *JoinGameInput) (*JoinGameOutput, error)

	// StartGame generates the words, picks the impostor and opens round 1
	StartGame(ctx context.Context, input *StartGameInput) (*StartGameOutput, error)

	// SubmitClue records a player's clue and advances the round once
	// everyone has submitted
	SubmitClue(ctx context.Context, input *SubmitClueInput) (*SubmitClueOutput, error)

	// CastVote records a ballot and resolves the game once everyone has voted
	CastVote(ctx context.Context, input *CastVoteInput) (*CastVoteOutput, error)

	// GetState returns what the viewer is allowed to see of a game
	GetState(ctx context.Context, input *GetStateInput) (*GetStateOutput, error)

	// DeleteGame removes a game and everything in it
	DeleteGame(ctx context.Context, input *DeleteGameInput) (*DeleteGameOutput, error)
}
