package game

import "errors"

var (
	// ErrGameNotFound is returned when no game has the requested code
	ErrGameNotFound = errors.New("game not found")

	// ErrCodeExists is returned when a game with the same code already exists
	ErrCodeExists = errors.New("game code already exists")

	// ErrNameTaken is returned when a display name is already used in the game
	ErrNameTaken = errors.New("name already taken in this game")

	// ErrGameFull is returned when the lobby has reached its capacity
	ErrGameFull = errors.New("game is full")

	// ErrStateConflict is returned when the game is not in the status or round
	// a write requires
	ErrStateConflict = errors.New("game state conflict")

	// ErrDuplicate is returned when a submission or vote already exists for the
	// same player and round
	ErrDuplicate = errors.New("duplicate entry")

	// ErrTooManyRetries is returned when an optimistic transaction keeps
	// losing to concurrent writers
	ErrTooManyRetries = errors.New("transaction retries exhausted")
)
