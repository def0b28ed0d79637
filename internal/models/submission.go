package models

import "time"

// Submission is one clue given by a player in a discussion round
type Submission struct {
	ID       string
	GameCode string
	Username string
	Round    int
	Content  string

	CreatedAt time.Time
}
