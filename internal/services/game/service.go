package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KirkDiggler/impostor/internal/common/clock"
	"github.com/KirkDiggler/impostor/internal/common/random"
	"github.com/KirkDiggler/impostor/internal/common/uuid"
	"github.com/KirkDiggler/impostor/internal/events"
	"github.com/KirkDiggler/impostor/internal/models"
	gameRepo "github.com/KirkDiggler/impostor/internal/repositories/game"
	"github.com/KirkDiggler/impostor/internal/services/wordpair"
	"github.com/rs/zerolog"
)

// service implements the Service interface
type service struct {
	minPlayers        int
	maxPlayers        int
	maxRounds         int
	maxNameLength     int
	maxClueLength     int
	generationTimeout time.Duration

	gameRepo      gameRepo.Repository
	wordPairs     wordpair.Provider
	random        random.Source
	clock         clock.Clock
	uuidGenerator uuid.UUID
	publisher     events.Publisher
	logger        zerolog.Logger
}

// New creates a new game service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.GameRepo == nil {
		return nil, ErrNilGameRepo
	}

	if cfg.WordPairProvider == nil {
		return nil, ErrNilWordPairProvider
	}

	if cfg.Random == nil {
		return nil, ErrNilRandom
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	s := &service{
		minPlayers:        cfg.MinPlayers,
		maxPlayers:        cfg.MaxPlayers,
		maxRounds:         cfg.MaxRounds,
		maxNameLength:     cfg.MaxNameLength,
		maxClueLength:     cfg.MaxClueLength,
		generationTimeout: cfg.GenerationTimeout,
		gameRepo:          cfg.GameRepo,
		wordPairs:         cfg.WordPairProvider,
		random:            cfg.Random,
		clock:             cfg.Clock,
		uuidGenerator:     cfg.UUIDGenerator,
		publisher:         cfg.Publisher,
		logger:            cfg.Logger,
	}

	// Set default values if not provided
	if s.minPlayers <= 0 {
		s.minPlayers = defaultMinPlayers
	}
	if s.maxPlayers <= 0 {
		s.maxPlayers = defaultMaxPlayers
	}
	if s.maxRounds <= 0 {
		s.maxRounds = defaultMaxRounds
	}
	if s.maxNameLength <= 0 {
		s.maxNameLength = defaultMaxNameLength
	}
	if s.maxClueLength <= 0 {
		s.maxClueLength = defaultMaxClueLength
	}
	if s.generationTimeout <= 0 {
		s.generationTimeout = defaultGenerationTimeout
	}

	if s.maxPlayers < s.minPlayers {
		return nil, fmt.Errorf("%w: max players %d is below min players %d", ErrInvalidInput, s.maxPlayers, s.minPlayers)
	}

	return s, nil
}

// NormalizeCode returns the canonical form of a join code. Codes are
// case-insensitive for players and stored upper-case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > s.maxNameLength {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidInput, s.maxNameLength)
	}
	return name, nil
}

// translate maps repository errors onto service errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gameRepo.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, gameRepo.ErrStateConflict):
		return ErrInvalidGameState
	case errors.Is(err, gameRepo.ErrNameTaken):
		return ErrNameTaken
	case errors.Is(err, gameRepo.ErrGameFull):
		return ErrGameFull
	default:
		return err
	}
}

// publish sends an event to the change feed. Failures are logged and never
// fail the operation that caused them.
func (s *service) publish(ctx context.Context, game *models.Game, kind events.Kind, actor string) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, &events.Event{
		Code:   game.Code,
		Kind:   kind,
		Status: game.Status,
		Round:  game.Round,
		Actor:  actor,
		At:     s.clock.Now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("code", game.Code).
			Str("kind", string(kind)).
			Msg("failed to publish game event")
	}
}

func (s *service) getGame(ctx context.Context, code string) (*models.Game, error) {
	game, err := s.gameRepo.GetGame(ctx, &gameRepo.GetGameInput{
		Code: code,
	})
	if err != nil {
		return nil, translate(err)
	}
	return game, nil
}

func (s *service) listPlayers(ctx context.Context, code string) ([]*models.Player, error) {
	players, err := s.gameRepo.ListPlayers(ctx, &gameRepo.ListPlayersInput{
		Code: code,
	})
	if err != nil {
		return nil, translate(err)
	}
	return players, nil
}

func findPlayer(players []*models.Player, name string) *models.Player {
	for _, p := range players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// CreateGame opens a new lobby with the host as its first player
func (s *service) CreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	host, err := s.cleanName(input.HostName)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		game := &models.Game{
			Code:      random.Letters(s.random, codeAlphabet, CodeLength),
			Host:      host,
			Status:    models.GameStatusWaiting,
			Round:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := s.gameRepo.CreateGame(ctx, &gameRepo.CreateGameInput{
			Game: game,
			Host: &models.Player{
				GameCode: game.Code,
				Name:     host,
				JoinedAt: now,
			},
		})
		if errors.Is(err, gameRepo.ErrCodeExists) {
			s.logger.Debug().Str("code", game.Code).Int("attempt", attempt+1).Msg("game code collision")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create game: %w", err)
		}

		s.logger.Info().Str("code", game.Code).Str("host", host).Msg("game created")
		s.publish(ctx, game, events.KindCreated, host)

		return &CreateGameOutput{
			Code: game.Code,
		}, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// JoinGame adds a player to a waiting game
func (s *service) JoinGame(ctx context.Context, input *JoinGameInput) (*JoinGameOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	code := NormalizeCode(input.Code)
	name, err := s.cleanName(input.PlayerName)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.gameRepo.AddPlayer(ctx, &gameRepo.AddPlayerInput{
		Player: &models.Player{
			GameCode: code,
			Name:     name,
			JoinedAt: now,
		},
		MaxPlayers: s.maxPlayers,
	})
	if err != nil {
		return nil, translate(err)
	}

	players, err := s.listPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}

	s.publish(ctx, &models.Game{Code: code, Status: models.GameStatusWaiting, Round: 1}, events.KindPlayerJoined, name)

	return &JoinGameOutput{
		Players: names,
	}, nil
}

// StartGame generates the words, picks the impostor and opens round 1
func (s *service) StartGame(ctx context.Context, input *StartGameInput) (*StartGameOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	code := NormalizeCode(input.Code)
	game, err := s.getGame(ctx, code)
	if err != nil {
		return nil, err
	}

	requester := strings.TrimSpace(input.Requester)
	if requester != "" && requester != game.Host {
		return nil, ErrNotHost
	}

	if game.Status != models.GameStatusWaiting {
		return nil, ErrInvalidGameState
	}

	players, err := s.listPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	if len(players) < s.minPlayers {
		return nil, fmt.Errorf("%w: need at least %d players, have %d", ErrInvalidGameState, s.minPlayers, len(players))
	}

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	pair, err := s.wordPairs.GenerateWordPair(genCtx)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("word generation failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if !pair.Valid() {
		return nil, fmt.Errorf("%w: degenerate pair", ErrGenerationFailed)
	}

	impostor := s.random.Intn(len(players))
	assignments := make([]gameRepo.RoleAssignment, len(players))
	for i, p := range players {
		assignments[i] = gameRepo.RoleAssignment{
			Name: p.Name,
			Word: pair.Main,
		}
		if i == impostor {
			assignments[i].IsImpostor = true
			assignments[i].Word = pair.Decoy
		}
	}

	err = s.gameRepo.AssignRoles(ctx, &gameRepo.AssignRolesInput{
		Code:        code,
		MainWord:    pair.Main,
		DecoyWord:   pair.Decoy,
		Assignments: assignments,
		UpdatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, translate(err)
	}

	game.Status = models.GameStatusInProgress
	game.Round = 1

	s.logger.Info().Str("code", code).Int("players", len(players)).Msg("game started")
	s.publish(ctx, game, events.KindStarted, requester)

	return &StartGameOutput{
		Round: game.Round,
	}, nil
}

// SubmitClue records a player's clue and advances the round once everyone
// has submitted
func (s *service) SubmitClue(ctx context.Context, input *SubmitClueInput) (*SubmitClueOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	code := NormalizeCode(input.Code)
	username := strings.TrimSpace(input.Username)
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: clue cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > s.maxClueLength {
		return nil, fmt.Errorf("%w: clue longer than %d characters", ErrInvalidInput, s.maxClueLength)
	}

	game, err := s.getGame(ctx, code)
	if err != nil {
		return nil, err
	}

	if game.Status != models.GameStatusInProgress || game.Round != input.Round {
		return nil, ErrInvalidGameState
	}

	players, err := s.listPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	if findPlayer(players, username) == nil {
		return nil, ErrPlayerNotInGame
	}

	err = s.gameRepo.AddSubmission(ctx, &gameRepo.AddSubmissionInput{
		Submission: &models.Submission{
			ID:        s.uuidGenerator.NewUUID(),
			GameCode:  code,
			Username:  username,
			Round:     input.Round,
			Content:   text,
			CreatedAt: s.clock.Now(),
		},
	})
	if errors.Is(err, gameRepo.ErrDuplicate) {
		return nil, ErrDuplicateSubmission
	}
	if err != nil {
		return nil, translate(err)
	}

	s.publish(ctx, game, events.KindClueSubmitted, username)

	output := &SubmitClueOutput{
		Round: game.Round,
	}

	// Every submission commits before it counts, so the last one to commit
	// sees the full round
	subs, err := s.gameRepo.ListSubmissions(ctx, &gameRepo.ListSubmissionsInput{
		Code:  code,
		Round: game.Round,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	if len(subs) < len(players) {
		return output, nil
	}

	from := gameRepo.GameState{Status: models.GameStatusInProgress, Round: game.Round}
	to := gameRepo.GameState{Status: models.GameStatusInProgress, Round: game.Round + 1}
	kind := events.KindRoundAdvanced
	if game.Round >= s.maxRounds {
		to = gameRepo.GameState{Status: models.GameStatusVoting, Round: game.Round}
		kind = events.KindVotingStarted
	}

	err = s.gameRepo.TransitionGame(ctx, &gameRepo.TransitionGameInput{
		Code:      code,
		From:      from,
		To:        to,
		UpdatedAt: s.clock.Now(),
	})
	if errors.Is(err, gameRepo.ErrStateConflict) {
		// Another request already advanced this round
		return output, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to advance round: %w", err)
	}

	game.Status = to.Status
	game.Round = to.Round
	output.Round = to.Round
	output.RoundAdvanced = kind == events.KindRoundAdvanced
	output.VotingStarted = kind == events.KindVotingStarted

	s.publish(ctx, game, kind, "")

	return output, nil
}

// CastVote records a ballot and resolves the game once everyone has voted
func (s *service) CastVote(ctx context.Context, input *CastVoteInput) (*CastVoteOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	code := NormalizeCode(input.Code)
	voter := strings.TrimSpace(input.Voter)
	votee := strings.TrimSpace(input.Votee)

	game, err := s.getGame(ctx, code)
	if err != nil {
		return nil, err
	}

	if game.Status != models.GameStatusVoting || game.Round != input.Round {
		return nil, ErrInvalidGameState
	}

	players, err := s.listPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	if findPlayer(players, voter) == nil {
		return nil, ErrPlayerNotInGame
	}
	if findPlayer(players, votee) == nil {
		return nil, ErrUnknownVotee
	}
	if voter == votee {
		return nil, ErrSelfVote
	}

	err = s.gameRepo.AddVote(ctx, &gameRepo.AddVoteInput{
		Vote: &models.Vote{
			ID:        s.uuidGenerator.NewUUID(),
			GameCode:  code,
			Voter:     voter,
			Votee:     votee,
			Round:     input.Round,
			CreatedAt: s.clock.Now(),
		},
	})
	if errors.Is(err, gameRepo.ErrDuplicate) {
		return nil, ErrDuplicateVote
	}
	if err != nil {
		return nil, translate(err)
	}

	s.publish(ctx, game, events.KindVoteCast, voter)

	votes, err := s.gameRepo.ListVotes(ctx, &gameRepo.ListVotesInput{
		Code:  code,
		Round: game.Round,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	if len(votes) < len(players) {
		return &CastVoteOutput{}, nil
	}

	result := resolve(players, votes)
	err = s.gameRepo.TransitionGame(ctx, &gameRepo.TransitionGameInput{
		Code:      code,
		From:      gameRepo.GameState{Status: models.GameStatusVoting, Round: game.Round},
		To:        gameRepo.GameState{Status: models.GameStatusEnded, Round: game.Round},
		Result:    result,
		UpdatedAt: s.clock.Now(),
	})
	if errors.Is(err, gameRepo.ErrStateConflict) {
		// Another request already resolved the vote
		return &CastVoteOutput{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vote: %w", err)
	}

	game.Status = models.GameStatusEnded
	game.Result = result

	s.logger.Info().
		Str("code", code).
		Str("voted_out", result.VotedOut).
		Str("winner", string(result.Winner)).
		Msg("game ended")
	s.publish(ctx, game, events.KindEnded, "")

	return &CastVoteOutput{
		Resolved: true,
		Result:   result,
	}, nil
}

// GetState returns what the viewer is allowed to see of a game
func (s *service) GetState(ctx context.Context, input *GetStateInput) (*GetStateOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	code := NormalizeCode(input.Code)
	game, err := s.getGame(ctx, code)
	if err != nil {
		return nil, err
	}

	players, err := s.listPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	subs, err := s.gameRepo.ListSubmissions(ctx, &gameRepo.ListSubmissionsInput{
		Code: code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	var votes []*models.Vote
	if game.Status == models.GameStatusVoting || game.Status == models.GameStatusEnded {
		votes, err = s.gameRepo.ListVotes(ctx, &gameRepo.ListVotesInput{
			Code:  code,
			Round: game.Round,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list votes: %w", err)
		}
	}

	return &GetStateOutput{
		View: buildView(&viewInput{
			game:       game,
			players:    players,
			subs:       subs,
			votes:      votes,
			viewer:     strings.TrimSpace(input.Viewer),
			maxRounds:  s.maxRounds,
			minPlayers: s.minPlayers,
		}),
	}, nil
}

// DeleteGame removes a game and everything in it
func (s *service) DeleteGame(ctx context.Context, input *DeleteGameInput) (*DeleteGameOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	code := NormalizeCode(input.Code)
	game, err := s.getGame(ctx, code)
	if err != nil {
		return nil, err
	}

	requester := strings.TrimSpace(input.Requester)
	if requester != "" && requester != game.Host {
		return nil, ErrNotHost
	}

	if err := s.gameRepo.DeleteGame(ctx, &gameRepo.DeleteGameInput{Code: code}); err != nil {
		return nil, translate(err)
	}

	s.logger.Info().Str("code", code).Msg("game deleted")
	s.publish(ctx, game, events.KindDeleted, requester)

	return &DeleteGameOutput{
		Code: code,
	}, nil
}
