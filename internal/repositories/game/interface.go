package game

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/impostor/internal/repositories/game Repository

import (
	"context"

	"github.com/KirkDiggler/impostor/internal/models"
)

// Repository is the persistence store for games, players, submissions and
// votes. Every method is atomic; deleting a game removes its children.
type Repository interface {
	// CreateGame inserts a game together with its host player
	CreateGame(ctx context.Context, input *CreateGameInput) error

	// GetGame retrieves a game by code
	GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error)

	// DeleteGame removes a game and everything that belongs to it
	DeleteGame(ctx context.Context, input *DeleteGameInput) error

	// DeleteGamesBefore removes every game created before the cutoff
	DeleteGamesBefore(ctx context.Context, input *DeleteGamesBeforeInput) (*DeleteGamesBeforeOutput, error)

	// AddPlayer adds a player to a waiting game
	AddPlayer(ctx context.Context, input *AddPlayerInput) error

	// ListPlayers returns the players of a game in join order
	ListPlayers(ctx context.Context, input *ListPlayersInput) ([]*models.Player, error)

	// AssignRoles stores the words and impostor flag of every player and
	// moves the game from waiting to in_progress
	AssignRoles(ctx context.Context, input *AssignRolesInput) error

	// AddSubmission records a clue for the game's current round
	AddSubmission(ctx context.Context, input *AddSubmissionInput) error

	// ListSubmissions returns the clues of a round, or of every round when
	// the round is zero
	ListSubmissions(ctx context.Context, input *ListSubmissionsInput) ([]*models.Submission, error)

	// AddVote records a ballot for the game's current round
	AddVote(ctx context.Context, input *AddVoteInput) error

	// ListVotes returns the ballots of a round, or of every round when the
	// round is zero
	ListVotes(ctx context.Context, input *ListVotesInput) ([]*models.Vote, error)

	// TransitionGame moves a game to a new status and round if and only if
	// it is still in the expected status and round
	TransitionGame(ctx context.Context, input *TransitionGameInput) error

	// Close releases the underlying connection
	Close() error
}
