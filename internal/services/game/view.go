package game

import (
	"github.com/KirkDiggler/impostor/internal/models"
)

type viewInput struct {
	game       *models.Game
	players    []*models.Player
	subs       []*models.Submission
	votes      []*models.Vote
	viewer     string
	maxRounds  int
	minPlayers int
}

// buildView projects a game for one viewer
func buildView(in *viewInput) *GameView {
	game := in.game
	ended := game.Status == models.GameStatusEnded

	view := &GameView{
		Code:        game.Code,
		Host:        game.Host,
		Status:      game.Status,
		Round:       game.Round,
		MaxRounds:   in.maxRounds,
		MinPlayers:  in.minPlayers,
		Players:     make([]*PlayerView, 0, len(in.players)),
		Submissions: []*ClueView{},
		History:     make([]*ClueView, 0, len(in.subs)),
		Voters:      make([]string, 0, len(in.votes)),
		CreatedAt:   game.CreatedAt,
	}

	submitted := make(map[string]bool)
	for _, sub := range in.subs {
		clue := &ClueView{
			Username:  sub.Username,
			Round:     sub.Round,
			Content:   sub.Content,
			CreatedAt: sub.CreatedAt,
		}
		view.History = append(view.History, clue)
		if sub.Round == game.Round {
			view.Submissions = append(view.Submissions, clue)
			submitted[sub.Username] = true
		}
	}

	voted := make(map[string]bool)
	for _, v := range in.votes {
		voted[v.Voter] = true
		view.Voters = append(view.Voters, v.Voter)
	}

	for _, p := range in.players {
		pv := &PlayerView{
			Name:         p.Name,
			IsHost:       p.Name == game.Host,
			HasSubmitted: game.Status == models.GameStatusInProgress && submitted[p.Name],
			HasVoted:     voted[p.Name],
		}
		if ended {
			pv.IsImpostor = p.IsImpostor
			pv.Word = p.AssignedWord
		}
		if p.Name == in.viewer && game.Status.HasStarted() {
			view.YourWord = p.AssignedWord
		}
		view.Players = append(view.Players, pv)
	}

	if ended {
		view.MainWord = game.MainWord
		view.DecoyWord = game.DecoyWord
		if game.Result != nil {
			view.Result = game.Result
			view.Tally = game.Result.Tally
		}
	}

	return view
}
