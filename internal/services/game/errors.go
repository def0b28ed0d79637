package game

// GameError is a custom error type for game-related errors
type GameError string

// Error implements the error interface
func (e GameError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrGameNotFound        GameError = "game not found"
	ErrInvalidGameState    GameError = "invalid game state"
	ErrNameTaken           GameError = "name already taken in this game"
	ErrDuplicateSubmission GameError = "clue already submitted this round"
	ErrDuplicateVote       GameError = "vote already cast this round"
	ErrUnknownVotee        GameError = "votee is not a player in this game"
	ErrGenerationFailed    GameError = "word pair generation failed"
	ErrSelfVote            GameError = "players cannot vote for themselves"
	ErrPlayerNotInGame     GameError = "player not in game"
	ErrGameFull            GameError = "game is at maximum capacity"
	ErrNotHost             GameError = "only the host can do that"
	ErrInvalidInput        GameError = "invalid input"
	ErrCodeSpaceExhausted  GameError = "could not allocate a unique game code"
	ErrNilConfig           GameError = "config cannot be nil"
	ErrNilGameRepo         GameError = "game repository cannot be nil"
	ErrNilWordPairProvider GameError = "word pair provider cannot be nil"
	ErrNilRandom           GameError = "random source cannot be nil"
	ErrNilClock            GameError = "clock cannot be nil"
	ErrNilUUIDGenerator    GameError = "UUID generator cannot be nil"
)
