package messaging

import (
	"github.com/KirkDiggler/impostor/internal/common/random"
	"github.com/KirkDiggler/impostor/internal/models"
)

// Config contains configuration for the messaging service
type Config struct {
	// Random picks between message variants
	Random random.Source
}

// GetJoinGameMessageInput contains parameters for getting a join game message
type GetJoinGameMessageInput struct {
	// PlayerName is the name of the player joining
	PlayerName string

	// PlayerCount is how many players are in the lobby, including this one
	PlayerCount int

	// MinPlayers is how many players are needed to start
	MinPlayers int
}

// GetJoinGameMessageOutput contains the result of getting a join game message
type GetJoinGameMessageOutput struct {
	Message string
}

// GetStatusMessageInput describes the game from one viewer's seat
type GetStatusMessageInput struct {
	Status      models.GameStatus
	Round       int
	MaxRounds   int
	PlayerCount int
	MinPlayers  int

	// IsHost is true when the viewer created the game
	IsHost bool

	// HasSubmitted is true when the viewer already gave a clue this round
	HasSubmitted bool

	// HasVoted is true when the viewer already cast a ballot
	HasVoted bool

	// Result is set once the game has ended
	Result *models.Result
}

// GetStatusMessageOutput is the output for GetStatusMessage
type GetStatusMessageOutput struct {
	Message string
}

// GetResultMessageInput contains the outcome of a game
type GetResultMessageInput struct {
	Result *models.Result
}

// GetResultMessageOutput contains the headline and the details line
type GetResultMessageOutput struct {
	Title   string
	Message string
}

// GetErrorMessageInput contains parameters for getting an error message
type GetErrorMessageInput struct {
	// Err is the error returned by the game service
	Err error
}

// GetErrorMessageOutput contains the result of getting an error message
type GetErrorMessageOutput struct {
	Message string
}
