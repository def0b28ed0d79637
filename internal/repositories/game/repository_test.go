package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/impostor/internal/models"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite holds the behaviour every Repository implementation
// must share. Backend suites embed it and set repo in SetupTest.
type RepositoryTestSuite struct {
	suite.Suite
	repo    Repository
	ctx     context.Context
	testNow time.Time
}

func (s *RepositoryTestSuite) setupCommon() {
	s.ctx = context.Background()
	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
}

func (s *RepositoryTestSuite) createGame(code, host string, createdAt time.Time) {
	err := s.repo.CreateGame(s.ctx, &CreateGameInput{
		Game: &models.Game{
			Code:      code,
			Host:      host,
			Status:    models.GameStatusWaiting,
			Round:     1,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		Host: &models.Player{
			GameCode: code,
			Name:     host,
			JoinedAt: createdAt,
		},
	})
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) addPlayer(code, name string, offset time.Duration) {
	err := s.repo.AddPlayer(s.ctx, &AddPlayerInput{
		Player: &models.Player{
			GameCode: code,
			Name:     name,
			JoinedAt: s.testNow.Add(offset),
		},
	})
	s.Require().NoError(err)
}

// startedGame creates ABCD with alice, bob and carol and assigns bob as impostor
func (s *RepositoryTestSuite) startedGame() {
	s.createGame("ABCD", "alice", s.testNow)
	s.addPlayer("ABCD", "bob", time.Second)
	s.addPlayer("ABCD", "carol", 2*time.Second)

	err := s.repo.AssignRoles(s.ctx, &AssignRolesInput{
		Code:      "ABCD",
		MainWord:  "apple",
		DecoyWord: "banana",
		Assignments: []RoleAssignment{
			{Name: "alice", Word: "apple"},
			{Name: "bob", Word: "banana", IsImpostor: true},
			{Name: "carol", Word: "apple"},
		},
		UpdatedAt: s.testNow.Add(time.Minute),
	})
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) submit(username string, round int) error {
	return s.repo.AddSubmission(s.ctx, &AddSubmissionInput{
		Submission: &models.Submission{
			ID:        fmt.Sprintf("sub-%s-%d", username, round),
			GameCode:  "ABCD",
			Username:  username,
			Round:     round,
			Content:   "fruit",
			CreatedAt: s.testNow.Add(time.Duration(round) * time.Minute),
		},
	})
}

func (s *RepositoryTestSuite) TestCreateAndGetGame() {
	s.createGame("ABCD", "alice", s.testNow)

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal("ABCD", game.Code)
	s.Equal("alice", game.Host)
	s.Equal(models.GameStatusWaiting, game.Status)
	s.Equal(1, game.Round)
	s.Equal(s.testNow.Unix(), game.CreatedAt.Unix())
	s.Nil(game.Result)

	players, err := s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal("alice", players[0].Name)
	s.False(players[0].IsImpostor)
	s.Empty(players[0].AssignedWord)
}

func (s *RepositoryTestSuite) TestCreateGame_CodeExists() {
	s.createGame("ABCD", "alice", s.testNow)

	err := s.repo.CreateGame(s.ctx, &CreateGameInput{
		Game: &models.Game{Code: "ABCD", Host: "zed", Status: models.GameStatusWaiting, Round: 1, CreatedAt: s.testNow},
		Host: &models.Player{GameCode: "ABCD", Name: "zed", JoinedAt: s.testNow},
	})
	s.ErrorIs(err, ErrCodeExists)

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal("alice", game.Host)
}

func (s *RepositoryTestSuite) TestGetGame_NotFound() {
	_, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "NOPE"})
	s.ErrorIs(err, ErrGameNotFound)

	_, err = s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "NOPE"})
	s.ErrorIs(err, ErrGameNotFound)
}

func (s *RepositoryTestSuite) TestAddPlayer() {
	s.createGame("ABCD", "alice", s.testNow)
	s.addPlayer("ABCD", "bob", time.Second)

	err := s.repo.AddPlayer(s.ctx, &AddPlayerInput{
		Player: &models.Player{GameCode: "ABCD", Name: "bob", JoinedAt: s.testNow.Add(2 * time.Second)},
	})
	s.ErrorIs(err, ErrNameTaken)

	err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{
		Player:     &models.Player{GameCode: "ABCD", Name: "carol", JoinedAt: s.testNow.Add(3 * time.Second)},
		MaxPlayers: 2,
	})
	s.ErrorIs(err, ErrGameFull)

	err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{
		Player: &models.Player{GameCode: "NOPE", Name: "carol", JoinedAt: s.testNow},
	})
	s.ErrorIs(err, ErrGameNotFound)

	players, err := s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal("alice", players[0].Name)
	s.Equal("bob", players[1].Name)
}

func (s *RepositoryTestSuite) TestAssignRoles() {
	s.startedGame()

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal(models.GameStatusInProgress, game.Status)
	s.Equal(1, game.Round)
	s.Equal("apple", game.MainWord)
	s.Equal("banana", game.DecoyWord)

	players, err := s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	impostors := 0
	for _, p := range players {
		if p.IsImpostor {
			impostors++
			s.Equal("banana", p.AssignedWord)
		} else {
			s.Equal("apple", p.AssignedWord)
		}
	}
	s.Equal(1, impostors)

	// Joining after the start is rejected
	err = s.repo.AddPlayer(s.ctx, &AddPlayerInput{
		Player: &models.Player{GameCode: "ABCD", Name: "dave", JoinedAt: s.testNow},
	})
	s.ErrorIs(err, ErrStateConflict)

	// A second start fails on the status check
	err = s.repo.AssignRoles(s.ctx, &AssignRolesInput{
		Code:     "ABCD",
		MainWord: "sun", DecoyWord: "moon",
		Assignments: []RoleAssignment{
			{Name: "alice", Word: "moon", IsImpostor: true},
			{Name: "bob", Word: "sun"},
			{Name: "carol", Word: "sun"},
		},
	})
	s.ErrorIs(err, ErrStateConflict)
}

func (s *RepositoryTestSuite) TestAssignRoles_RosterChanged() {
	s.createGame("ABCD", "alice", s.testNow)
	s.addPlayer("ABCD", "bob", time.Second)
	s.addPlayer("ABCD", "carol", 2*time.Second)

	err := s.repo.AssignRoles(s.ctx, &AssignRolesInput{
		Code:      "ABCD",
		MainWord:  "apple",
		DecoyWord: "banana",
		Assignments: []RoleAssignment{
			{Name: "alice", Word: "apple"},
			{Name: "bob", Word: "banana", IsImpostor: true},
		},
	})
	s.ErrorIs(err, ErrStateConflict)

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal(models.GameStatusWaiting, game.Status)

	players, err := s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "ABCD"})
	s.Require().NoError(err)
	for _, p := range players {
		s.Empty(p.AssignedWord)
		s.False(p.IsImpostor)
	}
}

func (s *RepositoryTestSuite) TestAddSubmission() {
	s.startedGame()

	s.Require().NoError(s.submit("alice", 1))
	s.ErrorIs(s.submit("alice", 1), ErrDuplicate)
	s.ErrorIs(s.submit("bob", 2), ErrStateConflict)

	subs, err := s.repo.ListSubmissions(s.ctx, &ListSubmissionsInput{Code: "ABCD", Round: 1})
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal("alice", subs[0].Username)
	s.Equal("fruit", subs[0].Content)
}

func (s *RepositoryTestSuite) TestAddSubmission_NotInProgress() {
	s.createGame("ABCD", "alice", s.testNow)
	s.ErrorIs(s.submit("alice", 1), ErrStateConflict)
}

func (s *RepositoryTestSuite) TestTransitionGame() {
	s.startedGame()

	err := s.repo.TransitionGame(s.ctx, &TransitionGameInput{
		Code: "ABCD",
		From: GameState{Status: models.GameStatusInProgress, Round: 1},
		To:   GameState{Status: models.GameStatusInProgress, Round: 2},
	})
	s.Require().NoError(err)

	// The same transition a second time no longer matches
	err = s.repo.TransitionGame(s.ctx, &TransitionGameInput{
		Code: "ABCD",
		From: GameState{Status: models.GameStatusInProgress, Round: 1},
		To:   GameState{Status: models.GameStatusInProgress, Round: 2},
	})
	s.ErrorIs(err, ErrStateConflict)

	// Backward edges are refused outright
	err = s.repo.TransitionGame(s.ctx, &TransitionGameInput{
		Code: "ABCD",
		From: GameState{Status: models.GameStatusInProgress, Round: 2},
		To:   GameState{Status: models.GameStatusWaiting, Round: 1},
	})
	s.ErrorIs(err, ErrStateConflict)

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal(models.GameStatusInProgress, game.Status)
	s.Equal(2, game.Round)
}

func (s *RepositoryTestSuite) TestTransitionGame_Concurrent() {
	s.startedGame()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.repo.TransitionGame(s.ctx, &TransitionGameInput{
				Code: "ABCD",
				From: GameState{Status: models.GameStatusInProgress, Round: 1},
				To:   GameState{Status: models.GameStatusInProgress, Round: 2},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal(2, game.Round)
}

func (s *RepositoryTestSuite) TestVotesAndResult() {
	s.startedGame()

	err := s.repo.TransitionGame(s.ctx, &TransitionGameInput{
		Code: "ABCD",
		From: GameState{Status: models.GameStatusInProgress, Round: 1},
		To:   GameState{Status: models.GameStatusVoting, Round: 1},
	})
	s.Require().NoError(err)

	vote := func(voter, votee string) error {
		return s.repo.AddVote(s.ctx, &AddVoteInput{
			Vote: &models.Vote{
				ID:        "vote-" + voter,
				GameCode:  "ABCD",
				Voter:     voter,
				Votee:     votee,
				Round:     1,
				CreatedAt: s.testNow,
			},
		})
	}

	s.Require().NoError(vote("alice", "bob"))
	s.ErrorIs(vote("alice", "carol"), ErrDuplicate)
	s.Require().NoError(vote("carol", "bob"))

	votes, err := s.repo.ListVotes(s.ctx, &ListVotesInput{Code: "ABCD", Round: 1})
	s.Require().NoError(err)
	s.Len(votes, 2)

	err = s.repo.TransitionGame(s.ctx, &TransitionGameInput{
		Code: "ABCD",
		From: GameState{Status: models.GameStatusVoting, Round: 1},
		To:   GameState{Status: models.GameStatusEnded, Round: 1},
		Result: &models.Result{
			VotedOut: "bob",
			Impostor: "bob",
			Winner:   models.TeamPlayers,
			Tally:    map[string]int{"bob": 2},
		},
	})
	s.Require().NoError(err)

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Equal(models.GameStatusEnded, game.Status)
	s.Require().NotNil(game.Result)
	s.Equal("bob", game.Result.VotedOut)
	s.Equal(models.TeamPlayers, game.Result.Winner)

	s.ErrorIs(vote("bob", "alice"), ErrStateConflict)
}

func (s *RepositoryTestSuite) TestDeleteGameCascades() {
	s.startedGame()
	s.Require().NoError(s.submit("alice", 1))

	err := s.repo.DeleteGame(s.ctx, &DeleteGameInput{Code: "ABCD"})
	s.Require().NoError(err)

	_, err = s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.ErrorIs(err, ErrGameNotFound)

	subs, err := s.repo.ListSubmissions(s.ctx, &ListSubmissionsInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Empty(subs)

	err = s.repo.DeleteGame(s.ctx, &DeleteGameInput{Code: "ABCD"})
	s.ErrorIs(err, ErrGameNotFound)

	// The code can be reused without inheriting old rows
	s.createGame("ABCD", "zed", s.testNow)
	players, err := s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal("zed", players[0].Name)
}

func (s *RepositoryTestSuite) TestDeleteGamesBefore() {
	s.createGame("OLDD", "alice", s.testNow.Add(-25*time.Hour))
	s.createGame("NEWW", "bob", s.testNow.Add(-23*time.Hour))

	cutoff := s.testNow.Add(-24 * time.Hour)
	out, err := s.repo.DeleteGamesBefore(s.ctx, &DeleteGamesBeforeInput{Cutoff: cutoff})
	s.Require().NoError(err)
	s.Equal([]string{"OLDD"}, out.Codes)

	_, err = s.repo.GetGame(s.ctx, &GetGameInput{Code: "OLDD"})
	s.ErrorIs(err, ErrGameNotFound)
	_, err = s.repo.GetGame(s.ctx, &GetGameInput{Code: "NEWW"})
	s.NoError(err)

	// Running again changes nothing
	out, err = s.repo.DeleteGamesBefore(s.ctx, &DeleteGamesBeforeInput{Cutoff: cutoff})
	s.Require().NoError(err)
	s.Empty(out.Codes)
	_, err = s.repo.GetGame(s.ctx, &GetGameInput{Code: "NEWW"})
	s.NoError(err)
}

func (s *RepositoryTestSuite) TestTimestampsRoundTrip() {
	wholeSecond := time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	trailingZero := time.Date(2025, 4, 19, 12, 0, 1, 123456780, time.UTC)

	s.createGame("ABCD", "alice", wholeSecond)
	err := s.repo.AddPlayer(s.ctx, &AddPlayerInput{
		Player: &models.Player{GameCode: "ABCD", Name: "bob", JoinedAt: trailingZero},
	})
	s.Require().NoError(err)

	game, err := s.repo.GetGame(s.ctx, &GetGameInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.True(wholeSecond.Equal(game.CreatedAt), "created_at %s", game.CreatedAt)
	s.True(wholeSecond.Equal(game.UpdatedAt), "updated_at %s", game.UpdatedAt)

	players, err := s.repo.ListPlayers(s.ctx, &ListPlayersInput{Code: "ABCD"})
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.True(wholeSecond.Equal(players[0].JoinedAt))
	s.True(trailingZero.Equal(players[1].JoinedAt), "joined_at %s", players[1].JoinedAt)

	deleted, err := s.repo.DeleteGamesBefore(s.ctx, &DeleteGamesBeforeInput{Cutoff: wholeSecond})
	s.Require().NoError(err)
	s.Empty(deleted.Codes)

	deleted, err = s.repo.DeleteGamesBefore(s.ctx, &DeleteGamesBeforeInput{Cutoff: wholeSecond.Add(time.Millisecond)})
	s.Require().NoError(err)
	s.Equal([]string{"ABCD"}, deleted.Codes)
}
