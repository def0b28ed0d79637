package models

// Team identifies the winning side of a game
type Team string

const (
	// TeamImpostor means the impostor escaped
	TeamImpostor Team = "impostor"

	// TeamPlayers means the regular players caught the impostor
	TeamPlayers Team = "players"
)

// Result is the outcome of the vote
type Result struct {
	// VotedOut is the player with a strict plurality of votes, empty on a tie
	VotedOut string `json:"voted_out"`

	// Impostor is the name of the player holding the decoy word
	Impostor string `json:"impostor"`

	// Winner is the side that won
	Winner Team `json:"winner"`

	// Tally maps votee name to number of votes received
	Tally map[string]int `json:"tally"`
}
