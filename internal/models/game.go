package models

import (
	"time"
)

// GameStatus represents the current state of a game
type GameStatus string

const (
	// GameStatusWaiting indicates the lobby is open and players may join
	GameStatusWaiting GameStatus = "waiting"

	// GameStatusInProgress indicates words are assigned and clue rounds are running
	GameStatusInProgress GameStatus = "in_progress"

	// GameStatusVoting indicates clue rounds are closed and ballots are open
	GameStatusVoting GameStatus = "voting"

	// GameStatusEnded indicates the game is over and the result is recorded
	GameStatusEnded GameStatus = "ended"
)

// Rank returns the position of the status along the lifecycle, or -1 for
// an unknown status
func (s GameStatus) Rank() int {
	switch s {
	case GameStatusWaiting:
		return 0
	case GameStatusInProgress:
		return 1
	case GameStatusVoting:
		return 2
	case GameStatusEnded:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether s is one of the four known statuses
func (s GameStatus) IsValid() bool {
	return s.Rank() >= 0
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
// in_progress -> in_progress is the round increment.
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	switch s {
	case GameStatusWaiting:
		return next == GameStatusInProgress
	case GameStatusInProgress:
		return next == GameStatusInProgress || next == GameStatusVoting
	case GameStatusVoting:
		return next == GameStatusEnded
	default:
		return false
	}
}

// HasStarted reports whether words have been assigned
func (s GameStatus) HasStarted() bool {
	return s.Rank() >= GameStatusInProgress.Rank()
}

// Game represents one play session identified by a short code
type Game struct {
	// Code is the short unique identifier players use to join
	Code string

	// Host is the display name of the player who created the game
	Host string

	// Status is the current state of the game
	Status GameStatus

	// Round is the current discussion round, starting at 1
	Round int

	// MainWord is the word given to regular players
	MainWord string

	// DecoyWord is the word given to the impostor
	DecoyWord string

	// Result is set once the game has ended
	Result *Result

	// CreatedAt is when the game was created
	CreatedAt time.Time

	// UpdatedAt is when the game was last updated
	UpdatedAt time.Time
}
