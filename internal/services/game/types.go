package game

import (
	"time"

	"github.com/KirkDiggler/impostor/internal/common/clock"
	"github.com/KirkDiggler/impostor/internal/common/random"
	"github.com/KirkDiggler/impostor/internal/common/uuid"
	"github.com/KirkDiggler/impostor/internal/events"
	"github.com/KirkDiggler/impostor/internal/models"
	gameRepo "github.com/KirkDiggler/impostor/internal/repositories/game"
	"github.com/KirkDiggler/impostor/internal/services/wordpair"
	"github.com/rs/zerolog"
)

const (
	// CodeLength is the number of letters in a game code
	CodeLength = 4

	// MaxCodeAttempts bounds how many codes CreateGame tries before giving up
	MaxCodeAttempts = 50

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	defaultMinPlayers        = 3
	defaultMaxPlayers        = 10
	defaultMaxRounds         = 3
	defaultMaxNameLength     = 32
	defaultMaxClueLength     = 200
	defaultGenerationTimeout = 20 * time.Second
)

// Config holds configuration for the game service
type Config struct {
	// Minimum number of players required to start
	MinPlayers int

	// Maximum number of players per game
	MaxPlayers int

	// Number of clue rounds before voting opens
	MaxRounds int

	// Longest accepted display name, in characters
	MaxNameLength int

	// Longest accepted clue, in characters
	MaxClueLength int

	// Budget for word generation inside StartGame
	GenerationTimeout time.Duration

	// Repository dependencies
	GameRepo gameRepo.Repository

	// Service dependencies
	WordPairProvider wordpair.Provider
	Random           random.Source
	Clock            clock.Clock
	UUIDGenerator    uuid.UUID

	// Optional change feed, events are not published when nil
	Publisher events.Publisher

	Logger zerolog.Logger
}

// CreateGameInput contains parameters for creating a new game
type CreateGameInput struct {
	// HostName is the display name of the player creating the game
	HostName string
}

// CreateGameOutput contains the result of creating a new game
type CreateGameOutput struct {
	// Code is the join code of the new game
	Code string
}

// JoinGameInput contains parameters for joining a game
type JoinGameInput struct {
	// Code is the join code, case-insensitive
	Code string

	// PlayerName is the display name of the player joining
	PlayerName string
}

// JoinGameOutput contains the result of joining a game
type JoinGameOutput struct {
	// Players lists everyone in the lobby in join order
	Players []string
}

// StartGameInput contains parameters for starting a game
type StartGameInput struct {
	Code string

	// Requester must be the host when set
	Requester string
}

// StartGameOutput contains the result of starting a game
type StartGameOutput struct {
	// Round is the opening round, always 1
	Round int
}

// SubmitClueInput contains parameters for submitting a clue
type SubmitClueInput struct {
	Code     string
	Username string

	// Round must match the game's current round
	Round int

	Text string
}

// SubmitClueOutput contains the result of submitting a clue
type SubmitClueOutput struct {
	// RoundAdvanced is true when this clue completed the round and
	// another clue round opened
	RoundAdvanced bool

	// VotingStarted is true when this clue completed the last round
	VotingStarted bool

	// Round is the game's round after the submission
	Round int
}

// CastVoteInput contains parameters for casting a vote
type CastVoteInput struct {
	Code  string
	Voter string
	Votee string

	// Round must match the game's last discussion round
	Round int
}

// CastVoteOutput contains the result of casting a vote
type CastVoteOutput struct {
	// Resolved is true when this vote was the last one and ended the game
	Resolved bool

	// Result is set when Resolved is true
	Result *models.Result
}

// GetStateInput contains parameters for reading a game
type GetStateInput struct {
	Code string

	// Viewer is the display name of the player asking, may be empty
	Viewer string
}

// GetStateOutput contains the projection of a game
type GetStateOutput struct {
	View *GameView
}

// DeleteGameInput contains parameters for deleting a game
type DeleteGameInput struct {
	Code string

	// Requester must be the host when set
	Requester string
}

// DeleteGameOutput contains the result of deleting a game
type DeleteGameOutput struct {
	Code string
}

// GameView is what a viewer may see of a game. Roles and words of other
// players only appear once the game has ended.
type GameView struct {
	Code       string            `json:"code"`
	Host       string            `json:"host"`
	Status     models.GameStatus `json:"status"`
	Round      int               `json:"round"`
	MaxRounds  int               `json:"max_rounds"`
	MinPlayers int               `json:"min_players"`

	Players []*PlayerView `json:"players"`

	// Submissions holds the clues of the current round
	Submissions []*ClueView `json:"submissions"`

	// History holds the clues of every round so far
	History []*ClueView `json:"history"`

	// Voters lists who has voted this round, not for whom
	Voters []string `json:"voters"`

	// YourWord is the viewer's own word once the game has started
	YourWord string `json:"your_word,omitempty"`

	// Set only when the game has ended
	MainWord  string         `json:"main_word,omitempty"`
	DecoyWord string         `json:"decoy_word,omitempty"`
	Tally     map[string]int `json:"tally,omitempty"`
	Result    *models.Result `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// PlayerView is one player as seen by the viewer
type PlayerView struct {
	Name         string `json:"name"`
	IsHost       bool   `json:"is_host"`
	HasSubmitted bool   `json:"has_submitted"`
	HasVoted     bool   `json:"has_voted"`

	// Revealed after the game ends
	IsImpostor bool   `json:"is_impostor,omitempty"`
	Word       string `json:"word,omitempty"`
}

// ClueView is one submitted clue
type ClueView struct {
	Username  string    `json:"username"`
	Round     int       `json:"round"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
