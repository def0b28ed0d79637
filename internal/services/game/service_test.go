package game

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	clockMocks "github.com/KirkDiggler/impostor/internal/common/clock/mocks"
	randomMocks "github.com/KirkDiggler/impostor/internal/common/random/mocks"
	uuidMocks "github.com/KirkDiggler/impostor/internal/common/uuid/mocks"
	"github.com/KirkDiggler/impostor/internal/events"
	eventMocks "github.com/KirkDiggler/impostor/internal/events/mocks"
	"github.com/KirkDiggler/impostor/internal/models"
	gameRepo "github.com/KirkDiggler/impostor/internal/repositories/game"
	gameMocks "github.com/KirkDiggler/impostor/internal/repositories/game/mocks"
	"github.com/KirkDiggler/impostor/internal/services/wordpair"
	wordPairMocks "github.com/KirkDiggler/impostor/internal/services/wordpair/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GameServiceTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	mockGameRepo  *gameMocks.MockRepository
	mockWordPairs *wordPairMocks.MockProvider
	mockRandom    *randomMocks.MockSource
	mockClock     *clockMocks.MockClock
	mockUUID      *uuidMocks.MockUUID
	mockPublisher *eventMocks.MockPublisher
	gameService   Service
	ctx           context.Context

	// Test data
	testTime time.Time
	testCode string

	// Reusable test fixtures
	waitingGame    *models.Game
	activeGame     *models.Game
	votingGame     *models.Game
	lobbyPlayers   []*models.Player
	startedPlayers []*models.Player
}

func (s *GameServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockGameRepo = gameMocks.NewMockRepository(s.mockCtrl)
	s.mockWordPairs = wordPairMocks.NewMockProvider(s.mockCtrl)
	s.mockRandom = randomMocks.NewMockSource(s.mockCtrl)
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.mockCtrl)
	s.mockPublisher = eventMocks.NewMockPublisher(s.mockCtrl)

	s.ctx = context.Background()

	// Initialize test data
	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.testCode = "ABCD"

	// Set up the clock mock to return our test time
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()
	s.mockUUID.EXPECT().NewUUID().Return("test-uuid").AnyTimes()

	s.waitingGame = &models.Game{
		Code:      s.testCode,
		Host:      "alice",
		Status:    models.GameStatusWaiting,
		Round:     1,
		CreatedAt: s.testTime,
		UpdatedAt: s.testTime,
	}

	s.activeGame = &models.Game{
		Code:      s.testCode,
		Host:      "alice",
		Status:    models.GameStatusInProgress,
		Round:     1,
		MainWord:  "apple",
		DecoyWord: "banana",
		CreatedAt: s.testTime,
		UpdatedAt: s.testTime,
	}

	s.votingGame = &models.Game{
		Code:      s.testCode,
		Host:      "alice",
		Status:    models.GameStatusVoting,
		Round:     3,
		MainWord:  "apple",
		DecoyWord: "banana",
		CreatedAt: s.testTime,
		UpdatedAt: s.testTime,
	}

	s.lobbyPlayers = []*models.Player{
		{GameCode: s.testCode, Name: "alice", JoinedAt: s.testTime},
		{GameCode: s.testCode, Name: "bob", JoinedAt: s.testTime.Add(time.Second)},
		{GameCode: s.testCode, Name: "carol", JoinedAt: s.testTime.Add(2 * time.Second)},
	}

	s.startedPlayers = []*models.Player{
		{GameCode: s.testCode, Name: "alice", AssignedWord: "apple", JoinedAt: s.testTime},
		{GameCode: s.testCode, Name: "bob", AssignedWord: "banana", IsImpostor: true, JoinedAt: s.testTime.Add(time.Second)},
		{GameCode: s.testCode, Name: "carol", AssignedWord: "apple", JoinedAt: s.testTime.Add(2 * time.Second)},
	}

	var err error
	s.gameService, err = New(&Config{
		MinPlayers:       3,
		MaxPlayers:       10,
		MaxRounds:        3,
		GameRepo:         s.mockGameRepo,
		WordPairProvider: s.mockWordPairs,
		Random:           s.mockRandom,
		Clock:            s.mockClock,
		UUIDGenerator:    s.mockUUID,
		Publisher:        s.mockPublisher,
		Logger:           zerolog.Nop(),
	})
	s.Require().NoError(err)
}

func (s *GameServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestGameServiceSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

// expectPublish expects one event of the given kind
func (s *GameServiceTestSuite) expectPublish(kind events.Kind) *gomock.Call {
	return s.mockPublisher.EXPECT().Publish(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, event *events.Event) error {
			s.Equal(kind, event.Kind)
			s.Equal(s.testCode, event.Code)
			return nil
		})
}

func (s *GameServiceTestSuite) TestNew_Validation() {
	valid := func() *Config {
		return &Config{
			GameRepo:         s.mockGameRepo,
			WordPairProvider: s.mockWordPairs,
			Random:           s.mockRandom,
			Clock:            s.mockClock,
			UUIDGenerator:    s.mockUUID,
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config) *Config
		wantErr error
	}{
		{name: "nil config", mutate: func(*Config) *Config { return nil }, wantErr: ErrNilConfig},
		{name: "nil repo", mutate: func(c *Config) *Config { c.GameRepo = nil; return c }, wantErr: ErrNilGameRepo},
		{name: "nil word pairs", mutate: func(c *Config) *Config { c.WordPairProvider = nil; return c }, wantErr: ErrNilWordPairProvider},
		{name: "nil random", mutate: func(c *Config) *Config { c.Random = nil; return c }, wantErr: ErrNilRandom},
		{name: "nil clock", mutate: func(c *Config) *Config { c.Clock = nil; return c }, wantErr: ErrNilClock},
		{name: "nil uuid", mutate: func(c *Config) *Config { c.UUIDGenerator = nil; return c }, wantErr: ErrNilUUIDGenerator},
		{name: "max below min", mutate: func(c *Config) *Config { c.MinPlayers, c.MaxPlayers = 5, 4; return c }, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := New(tt.mutate(valid()))
			s.ErrorIs(err, tt.wantErr)
		})
	}

	svc, err := New(valid())
	s.Require().NoError(err)
	s.Equal(defaultMinPlayers, svc.minPlayers)
	s.Equal(defaultMaxRounds, svc.maxRounds)
	s.Nil(svc.publisher)
}

func (s *GameServiceTestSuite) TestCreateGame_Success() {
	gomock.InOrder(
		s.mockRandom.EXPECT().Intn(26).Return(0),
		s.mockRandom.EXPECT().Intn(26).Return(1),
		s.mockRandom.EXPECT().Intn(26).Return(2),
		s.mockRandom.EXPECT().Intn(26).Return(3),
	)

	s.mockGameRepo.EXPECT().CreateGame(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, input *gameRepo.CreateGameInput) error {
			s.Equal("ABCD", input.Game.Code)
			s.Equal("alice", input.Game.Host)
			s.Equal(models.GameStatusWaiting, input.Game.Status)
			s.Equal(1, input.Game.Round)
			s.Equal(s.testTime, input.Game.CreatedAt)
			s.Equal("alice", input.Host.Name)
			s.False(input.Host.IsImpostor)
			s.Empty(input.Host.AssignedWord)
			return nil
		})
	s.expectPublish(events.KindCreated)

	output, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{HostName: "  alice "})
	s.Require().NoError(err)
	s.Equal("ABCD", output.Code)
}

func (s *GameServiceTestSuite) TestCreateGame_RetriesOnCollision() {
	s.mockRandom.EXPECT().Intn(26).Return(0).AnyTimes()

	gomock.InOrder(
		s.mockGameRepo.EXPECT().CreateGame(s.ctx, gomock.Any()).Return(gameRepo.ErrCodeExists),
		s.mockGameRepo.EXPECT().CreateGame(s.ctx, gomock.Any()).Return(nil),
	)
	s.mockPublisher.EXPECT().Publish(s.ctx, gomock.Any()).Return(nil)

	output, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{HostName: "alice"})
	s.Require().NoError(err)
	s.Equal("AAAA", output.Code)
}

func (s *GameServiceTestSuite) TestCreateGame_CodeSpaceExhausted() {
	s.mockRandom.EXPECT().Intn(26).Return(0).AnyTimes()
	s.mockGameRepo.EXPECT().CreateGame(s.ctx, gomock.Any()).Return(gameRepo.ErrCodeExists).Times(MaxCodeAttempts)

	_, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{HostName: "alice"})
	s.ErrorIs(err, ErrCodeSpaceExhausted)
}

func (s *GameServiceTestSuite) TestCreateGame_InvalidName() {
	_, err := s.gameService.CreateGame(s.ctx, &CreateGameInput{HostName: "   "})
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.gameService.CreateGame(s.ctx, &CreateGameInput{HostName: strings.Repeat("x", 33)})
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.gameService.CreateGame(s.ctx, nil)
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *GameServiceTestSuite) TestJoinGame_Success() {
	s.mockGameRepo.EXPECT().AddPlayer(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, input *gameRepo.AddPlayerInput) error {
			s.Equal(s.testCode, input.Player.GameCode)
			s.Equal("bob", input.Player.Name)
			s.Equal(10, input.MaxPlayers)
			return nil
		})
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, &gameRepo.ListPlayersInput{Code: s.testCode}).Return(s.lobbyPlayers[:2], nil)
	s.expectPublish(events.KindPlayerJoined)

	output, err := s.gameService.JoinGame(s.ctx, &JoinGameInput{Code: "abcd", PlayerName: "bob"})
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob"}, output.Players)
}

func (s *GameServiceTestSuite) TestJoinGame_ErrorMapping() {
	tests := []struct {
		repoErr error
		wantErr error
	}{
		{repoErr: gameRepo.ErrGameNotFound, wantErr: ErrGameNotFound},
		{repoErr: gameRepo.ErrStateConflict, wantErr: ErrInvalidGameState},
		{repoErr: gameRepo.ErrNameTaken, wantErr: ErrNameTaken},
		{repoErr: gameRepo.ErrGameFull, wantErr: ErrGameFull},
	}

	for _, tt := range tests {
		s.Run(tt.wantErr.Error(), func() {
			s.mockGameRepo.EXPECT().AddPlayer(s.ctx, gomock.Any()).Return(tt.repoErr)

			_, err := s.gameService.JoinGame(s.ctx, &JoinGameInput{Code: s.testCode, PlayerName: "bob"})
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *GameServiceTestSuite) TestStartGame_AssignsRoles() {
	s.mockGameRepo.EXPECT().GetGame(s.ctx, &gameRepo.GetGameInput{Code: s.testCode}).Return(s.waitingGame, nil)
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, &gameRepo.ListPlayersInput{Code: s.testCode}).Return(s.lobbyPlayers, nil)
	s.mockWordPairs.EXPECT().GenerateWordPair(gomock.Any()).Return(&wordpair.WordPair{Main: "apple", Decoy: "banana"}, nil)
	s.mockRandom.EXPECT().Intn(3).Return(2)
	s.mockGameRepo.EXPECT().AssignRoles(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, input *gameRepo.AssignRolesInput) error {
			s.Equal("apple", input.MainWord)
			s.Equal("banana", input.DecoyWord)
			s.Equal([]gameRepo.RoleAssignment{
				{Name: "alice", Word: "apple"},
				{Name: "bob", Word: "apple"},
				{Name: "carol", Word: "banana", IsImpostor: true},
			}, input.Assignments)
			return nil
		})
	s.expectPublish(events.KindStarted)

	output, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode, Requester: "alice"})
	s.Require().NoError(err)
	s.Equal(1, output.Round)
}

func (s *GameServiceTestSuite) TestStartGame_GenerationFailureLeavesWaiting() {
	s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil).Times(2)
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.lobbyPlayers, nil).Times(2)

	// Transport failure
	s.mockWordPairs.EXPECT().GenerateWordPair(gomock.Any()).Return(nil, errors.New("connection refused"))
	_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
	s.ErrorIs(err, ErrGenerationFailed)

	// Degenerate pair
	s.mockWordPairs.EXPECT().GenerateWordPair(gomock.Any()).Return(&wordpair.WordPair{Main: "Apple", Decoy: "apple"}, nil)
	_, err = s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
	s.ErrorIs(err, ErrGenerationFailed)

	// No AssignRoles expectation: the game was never touched
}

func (s *GameServiceTestSuite) TestStartGame_GenerationRunsUnderDeadline() {
	s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.lobbyPlayers, nil)
	s.mockWordPairs.EXPECT().GenerateWordPair(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (*wordpair.WordPair, error) {
			deadline, ok := ctx.Deadline()
			s.True(ok)
			s.WithinDuration(time.Now().Add(defaultGenerationTimeout), deadline, 5*time.Second)
			return nil, context.DeadlineExceeded
		})

	_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
	s.ErrorIs(err, ErrGenerationFailed)
}

func (s *GameServiceTestSuite) TestStartGame_Rejections() {
	s.Run("not host", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
		_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode, Requester: "bob"})
		s.ErrorIs(err, ErrNotHost)
	})

	s.Run("already started", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.activeGame, nil)
		_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
		s.ErrorIs(err, ErrInvalidGameState)
	})

	s.Run("too few players", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
		s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.lobbyPlayers[:2], nil)
		_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
		s.ErrorIs(err, ErrInvalidGameState)
	})

	s.Run("not found", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(nil, gameRepo.ErrGameNotFound)
		_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
		s.ErrorIs(err, ErrGameNotFound)
	})

	s.Run("lost the race", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
		s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.lobbyPlayers, nil)
		s.mockWordPairs.EXPECT().GenerateWordPair(gomock.Any()).Return(&wordpair.WordPair{Main: "sun", Decoy: "moon"}, nil)
		s.mockRandom.EXPECT().Intn(3).Return(0)
		s.mockGameRepo.EXPECT().AssignRoles(s.ctx, gomock.Any()).Return(gameRepo.ErrStateConflict)

		_, err := s.gameService.StartGame(s.ctx, &StartGameInput{Code: s.testCode})
		s.ErrorIs(err, ErrInvalidGameState)
	})
}

func (s *GameServiceTestSuite) expectSubmission(game *models.Game, count int) {
	s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(game, nil)
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.startedPlayers, nil)
	s.mockGameRepo.EXPECT().AddSubmission(s.ctx, gomock.Any()).Return(nil)
	s.expectPublish(events.KindClueSubmitted)

	subs := make([]*models.Submission, count)
	for i := range subs {
		subs[i] = &models.Submission{GameCode: s.testCode, Round: game.Round}
	}
	s.mockGameRepo.EXPECT().ListSubmissions(s.ctx, &gameRepo.ListSubmissionsInput{Code: s.testCode, Round: game.Round}).Return(subs, nil)
}

func (s *GameServiceTestSuite) TestSubmitClue_NotLastDoesNotAdvance() {
	s.expectSubmission(s.activeGame, 2)

	output, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "alice", Round: 1, Text: "red"})
	s.Require().NoError(err)
	s.False(output.RoundAdvanced)
	s.False(output.VotingStarted)
	s.Equal(1, output.Round)
}

func (s *GameServiceTestSuite) TestSubmitClue_LastAdvancesRound() {
	s.expectSubmission(s.activeGame, 3)
	s.mockGameRepo.EXPECT().TransitionGame(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, input *gameRepo.TransitionGameInput) error {
			s.Equal(gameRepo.GameState{Status: models.GameStatusInProgress, Round: 1}, input.From)
			s.Equal(gameRepo.GameState{Status: models.GameStatusInProgress, Round: 2}, input.To)
			return nil
		})
	s.expectPublish(events.KindRoundAdvanced)

	output, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "carol", Round: 1, Text: "red"})
	s.Require().NoError(err)
	s.True(output.RoundAdvanced)
	s.Equal(2, output.Round)
}

func (s *GameServiceTestSuite) TestSubmitClue_LastRoundStartsVoting() {
	game := *s.activeGame
	game.Round = 3
	s.expectSubmission(&game, 3)
	s.mockGameRepo.EXPECT().TransitionGame(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, input *gameRepo.TransitionGameInput) error {
			s.Equal(gameRepo.GameState{Status: models.GameStatusVoting, Round: 3}, input.To)
			return nil
		})
	s.expectPublish(events.KindVotingStarted)

	output, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "carol", Round: 3, Text: "red"})
	s.Require().NoError(err)
	s.True(output.VotingStarted)
	s.False(output.RoundAdvanced)
	s.Equal(3, output.Round)
}

func (s *GameServiceTestSuite) TestSubmitClue_AdvanceConflictIsNotAnError() {
	s.expectSubmission(s.activeGame, 3)
	s.mockGameRepo.EXPECT().TransitionGame(s.ctx, gomock.Any()).Return(gameRepo.ErrStateConflict)

	output, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "carol", Round: 1, Text: "red"})
	s.Require().NoError(err)
	s.False(output.RoundAdvanced)
}

func (s *GameServiceTestSuite) TestSubmitClue_PublishFailureIsIgnored() {
	s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.activeGame, nil)
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.startedPlayers, nil)
	s.mockGameRepo.EXPECT().AddSubmission(s.ctx, gomock.Any()).Return(nil)
	s.mockPublisher.EXPECT().Publish(s.ctx, gomock.Any()).Return(errors.New("broker down"))
	s.mockGameRepo.EXPECT().ListSubmissions(s.ctx, gomock.Any()).Return([]*models.Submission{{}}, nil)

	_, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "alice", Round: 1, Text: "red"})
	s.NoError(err)
}

func (s *GameServiceTestSuite) TestSubmitClue_Rejections() {
	s.Run("empty clue", func() {
		_, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "alice", Round: 1, Text: "  "})
		s.ErrorIs(err, ErrInvalidInput)
	})

	s.Run("wrong round", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.activeGame, nil)
		_, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "alice", Round: 2, Text: "red"})
		s.ErrorIs(err, ErrInvalidGameState)
	})

	s.Run("not started", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
		_, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "alice", Round: 1, Text: "red"})
		s.ErrorIs(err, ErrInvalidGameState)
	})

	s.Run("stranger", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.activeGame, nil)
		s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.startedPlayers, nil)
		_, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "mallory", Round: 1, Text: "red"})
		s.ErrorIs(err, ErrPlayerNotInGame)
	})

	s.Run("duplicate", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.activeGame, nil)
		s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.startedPlayers, nil)
		s.mockGameRepo.EXPECT().AddSubmission(s.ctx, gomock.Any()).Return(gameRepo.ErrDuplicate)
		_, err := s.gameService.SubmitClue(s.ctx, &SubmitClueInput{Code: s.testCode, Username: "alice", Round: 1, Text: "red"})
		s.ErrorIs(err, ErrDuplicateSubmission)
	})
}

func (s *GameServiceTestSuite) TestCastVote_Rejections() {
	tests := []struct {
		name    string
		voter   string
		votee   string
		round   int
		wantErr error
	}{
		{name: "wrong round", voter: "alice", votee: "bob", round: 1, wantErr: ErrInvalidGameState},
		{name: "stranger voter", voter: "mallory", votee: "bob", round: 3, wantErr: ErrPlayerNotInGame},
		{name: "unknown votee", voter: "alice", votee: "mallory", round: 3, wantErr: ErrUnknownVotee},
		{name: "self vote", voter: "alice", votee: "alice", round: 3, wantErr: ErrSelfVote},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.votingGame, nil)
			s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.startedPlayers, nil).MaxTimes(1)

			_, err := s.gameService.CastVote(s.ctx, &CastVoteInput{Code: s.testCode, Voter: tt.voter, Votee: tt.votee, Round: tt.round})
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *GameServiceTestSuite) TestCastVote_LastVoteResolves() {
	s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.votingGame, nil)
	s.mockGameRepo.EXPECT().ListPlayers(s.ctx, gomock.Any()).Return(s.startedPlayers, nil)
	s.mockGameRepo.EXPECT().AddVote(s.ctx, gomock.Any()).Return(nil)
	s.expectPublish(events.KindVoteCast)
	s.mockGameRepo.EXPECT().ListVotes(s.ctx, &gameRepo.ListVotesInput{Code: s.testCode, Round: 3}).Return([]*models.Vote{
		{Voter: "alice", Votee: "bob"},
		{Voter: "carol", Votee: "bob"},
		{Voter: "bob", Votee: "alice"},
	}, nil)
	s.mockGameRepo.EXPECT().TransitionGame(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, input *gameRepo.TransitionGameInput) error {
			s.Equal(gameRepo.GameState{Status: models.GameStatusVoting, Round: 3}, input.From)
			s.Equal(gameRepo.GameState{Status: models.GameStatusEnded, Round: 3}, input.To)
			s.Require().NotNil(input.Result)
			return nil
		})
	s.expectPublish(events.KindEnded)

	output, err := s.gameService.CastVote(s.ctx, &CastVoteInput{Code: s.testCode, Voter: "bob", Votee: "alice", Round: 3})
	s.Require().NoError(err)
	s.True(output.Resolved)
	s.Equal("bob", output.Result.VotedOut)
	s.Equal("bob", output.Result.Impostor)
	s.Equal(models.TeamPlayers, output.Result.Winner)
}

func (s *GameServiceTestSuite) TestDeleteGame() {
	s.Run("not host", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
		_, err := s.gameService.DeleteGame(s.ctx, &DeleteGameInput{Code: s.testCode, Requester: "bob"})
		s.ErrorIs(err, ErrNotHost)
	})

	s.Run("host", func() {
		s.mockGameRepo.EXPECT().GetGame(s.ctx, gomock.Any()).Return(s.waitingGame, nil)
		s.mockGameRepo.EXPECT().DeleteGame(s.ctx, &gameRepo.DeleteGameInput{Code: s.testCode}).Return(nil)
		s.expectPublish(events.KindDeleted)

		output, err := s.gameService.DeleteGame(s.ctx, &DeleteGameInput{Code: s.testCode, Requester: "alice"})
		s.Require().NoError(err)
		s.Equal(s.testCode, output.Code)
	})
}

func TestResolve(t *testing.T) {
	players := []*models.Player{
		{Name: "alice"},
		{Name: "bob", IsImpostor: true},
		{Name: "carol"},
		{Name: "dave"},
	}

	tests := []struct {
		name         string
		votes        map[string]string
		wantVotedOut string
		wantWinner   models.Team
	}{
		{
			name:         "two-way tie",
			votes:        map[string]string{"alice": "bob", "carol": "bob", "dave": "alice", "bob": "alice"},
			wantVotedOut: "",
			wantWinner:   models.TeamImpostor,
		},
		{
			name:         "strict plurality on impostor",
			votes:        map[string]string{"alice": "bob", "carol": "bob", "dave": "bob", "bob": "alice"},
			wantVotedOut: "bob",
			wantWinner:   models.TeamPlayers,
		},
		{
			name:         "innocent voted out",
			votes:        map[string]string{"alice": "carol", "bob": "carol", "dave": "carol", "carol": "alice"},
			wantVotedOut: "carol",
			wantWinner:   models.TeamImpostor,
		},
		{
			name:         "spread vote is a tie",
			votes:        map[string]string{"alice": "bob", "bob": "carol", "carol": "dave", "dave": "alice"},
			wantVotedOut: "",
			wantWinner:   models.TeamImpostor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			votes := make([]*models.Vote, 0, len(tt.votes))
			for voter, votee := range tt.votes {
				votes = append(votes, &models.Vote{Voter: voter, Votee: votee})
			}

			result := resolve(players, votes)
			if result.VotedOut != tt.wantVotedOut {
				t.Errorf("voted out = %q, want %q", result.VotedOut, tt.wantVotedOut)
			}
			if result.Winner != tt.wantWinner {
				t.Errorf("winner = %q, want %q", result.Winner, tt.wantWinner)
			}
			if result.Impostor != "bob" {
				t.Errorf("impostor = %q, want bob", result.Impostor)
			}
			total := 0
			for _, n := range result.Tally {
				total += n
			}
			if total != len(tt.votes) {
				t.Errorf("tally counts %d votes, want %d", total, len(tt.votes))
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABCD", NormalizeCode("abcd"))
	assert.Equal(t, "ABCD", NormalizeCode("  AbCd \n"))
	assert.Equal(t, "", NormalizeCode("   "))
}
