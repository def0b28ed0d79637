package models

import "time"

// Vote is one ballot cast by a player during the voting phase
type Vote struct {
	ID       string
	GameCode string
	Voter    string
	Votee    string
	Round    int

	CreatedAt time.Time
}
