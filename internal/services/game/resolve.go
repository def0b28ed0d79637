package game

import (
	"github.com/KirkDiggler/impostor/internal/models"
)

// resolve tallies the ballots. The votee with a strict plurality is voted
// out; a tie votes nobody out and the impostor wins.
func resolve(players []*models.Player, votes []*models.Vote) *models.Result {
	result := &models.Result{
		Winner: models.TeamImpostor,
		Tally:  make(map[string]int),
	}

	for _, p := range players {
		if p.IsImpostor {
			result.Impostor = p.Name
			break
		}
	}

	for _, v := range votes {
		result.Tally[v.Votee]++
	}

	best, leaders := 0, 0
	for votee, count := range result.Tally {
		switch {
		case count > best:
			best, leaders = count, 1
			result.VotedOut = votee
		case count == best:
			leaders++
		}
	}

	if leaders != 1 {
		result.VotedOut = ""
		return result
	}

	if result.VotedOut == result.Impostor {
		result.Winner = models.TeamPlayers
	}

	return result
}
