package game

import (
	"time"

	"github.com/KirkDiggler/impostor/internal/models"
)

type CreateGameInput struct {
	Game *models.Game
	Host *models.Player
}

type GetGameInput struct {
	Code string
}

type DeleteGameInput struct {
	Code string
}

type DeleteGamesBeforeInput struct {
	Cutoff time.Time
}

type DeleteGamesBeforeOutput struct {
	// Codes lists the games that were removed
	Codes []string
}

type AddPlayerInput struct {
	Player *models.Player

	// MaxPlayers caps the lobby size; zero means no cap
	MaxPlayers int
}

type ListPlayersInput struct {
	Code string
}

// RoleAssignment is the word and flag for one player
type RoleAssignment struct {
	Name       string
	IsImpostor bool
	Word       string
}

type AssignRolesInput struct {
	Code      string
	MainWord  string
	DecoyWord string

	// Assignments must cover exactly the players currently in the game
	Assignments []RoleAssignment

	UpdatedAt time.Time
}

type AddSubmissionInput struct {
	Submission *models.Submission
}

type ListSubmissionsInput struct {
	Code  string
	Round int
}

type AddVoteInput struct {
	Vote *models.Vote
}

type ListVotesInput struct {
	Code  string
	Round int
}

// GameState is the (status, round) pair a transition is conditioned on
type GameState struct {
	Status models.GameStatus
	Round  int
}

type TransitionGameInput struct {
	Code string
	From GameState
	To   GameState

	// Result is stored alongside the transition when set
	Result *models.Result

	UpdatedAt time.Time
}
