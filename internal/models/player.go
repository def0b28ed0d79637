package models

import (
	"time"
)

// Player is a participant in one game. Display names are unique within a
// game, not globally.
type Player struct {
	// GameCode is the code of the game the player joined
	GameCode string

	// Name is the display name of the player
	Name string

	// IsImpostor is set at game start for exactly one player
	IsImpostor bool

	// AssignedWord is the main word for regular players and the decoy word
	// for the impostor. Empty until the game starts.
	AssignedWord string

	// JoinedAt is when the player joined the game
	JoinedAt time.Time
}
