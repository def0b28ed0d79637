package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/KirkDiggler/impostor/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	gameKeyPrefix     = "game:"
	playersKeySuffix  = ":players"
	submissionsSuffix = ":submissions"
	votesKeySuffix    = ":votes"
	gamesByCreatedKey = "games:by_created"

	// maxTxRetries bounds how often a WATCH transaction is retried when a
	// concurrent writer touches one of its keys
	maxTxRetries = 16
)

// Config holds configuration for the Redis game repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// reader is the read side shared by *redis.Client and *redis.Tx
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HExists(ctx context.Context, key, field string) *redis.BoolCmd
	HLen(ctx context.Context, key string) *redis.IntCmd
}

// NewRedis creates a new Redis-backed game repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

func gameKey(code string) string {
	return gameKeyPrefix + code
}

func playersKey(code string) string {
	return gameKeyPrefix + code + playersKeySuffix
}

func submissionsKey(code string) string {
	return gameKeyPrefix + code + submissionsSuffix
}

func votesKey(code string) string {
	return gameKeyPrefix + code + votesKeySuffix
}

func roundField(round int, name string) string {
	return strconv.Itoa(round) + ":" + name
}

// watch runs fn inside a WATCH on keys and retries when the optimistic
// transaction is aborted by a concurrent write
func (r *redisRepository) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTooManyRetries
}

func loadGame(ctx context.Context, rd reader, code string) (*models.Game, error) {
	gameJSON, err := rd.Get(ctx, gameKey(code)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var game models.Game
	if err := json.Unmarshal([]byte(gameJSON), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

func loadPlayers(ctx context.Context, rd reader, code string) ([]*models.Player, error) {
	raw, err := rd.HGetAll(ctx, playersKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	players := make([]*models.Player, 0, len(raw))
	for name, playerJSON := range raw {
		var player models.Player
		if err := json.Unmarshal([]byte(playerJSON), &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player %s: %w", name, err)
		}
		players = append(players, &player)
	}

	sort.Slice(players, func(i, j int) bool {
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].Name < players[j].Name
	})

	return players, nil
}

// CreateGame stores a new game and its host
func (r *redisRepository) CreateGame(ctx context.Context, input *CreateGameInput) error {
	if input == nil || input.Game == nil || input.Host == nil {
		return errors.New("input, game and host cannot be nil")
	}

	game := input.Game
	if game.Code == "" {
		return errors.New("game code cannot be empty")
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	hostJSON, err := json.Marshal(input.Host)
	if err != nil {
		return fmt.Errorf("failed to marshal host: %w", err)
	}

	return r.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, gameKey(game.Code)).Result()
		if err != nil {
			return fmt.Errorf("failed to check game code: %w", err)
		}
		if exists > 0 {
			return ErrCodeExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			// Clear any leftovers from a game that used this code before
			pipe.Del(ctx, playersKey(game.Code), submissionsKey(game.Code), votesKey(game.Code))
			pipe.Set(ctx, gameKey(game.Code), gameJSON, 0)
			pipe.HSet(ctx, playersKey(game.Code), input.Host.Name, hostJSON)
			pipe.ZAdd(ctx, gamesByCreatedKey, redis.Z{
				Score:  float64(game.CreatedAt.UnixNano()),
				Member: game.Code,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}
		return nil
	}, gameKey(game.Code))
}

// GetGame retrieves a game by code from Redis
func (r *redisRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	return loadGame(ctx, r.client, input.Code)
}

// DeleteGame removes a game and its players, submissions and votes
func (r *redisRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and game code cannot be empty")
	}

	code := input.Code
	return r.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, gameKey(code)).Result()
		if err != nil {
			return fmt.Errorf("failed to check game: %w", err)
		}
		if exists == 0 {
			return ErrGameNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, gameKey(code), playersKey(code), submissionsKey(code), votesKey(code))
			pipe.ZRem(ctx, gamesByCreatedKey, code)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete game: %w", err)
		}
		return nil
	}, gameKey(code))
}

// DeleteGamesBefore removes every game created strictly before the cutoff
func (r *redisRepository) DeleteGamesBefore(ctx context.Context, input *DeleteGamesBeforeInput) (*DeleteGamesBeforeOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	codes, err := r.client.ZRangeByScore(ctx, gamesByCreatedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(input.Cutoff.UnixNano(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expired games: %w", err)
	}

	deleted := make([]string, 0, len(codes))
	for _, code := range codes {
		err := r.DeleteGame(ctx, &DeleteGameInput{Code: code})
		if errors.Is(err, ErrGameNotFound) {
			// Index entry without a game, drop it
			if err := r.client.ZRem(ctx, gamesByCreatedKey, code).Err(); err != nil {
				return nil, fmt.Errorf("failed to clean index for %s: %w", code, err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, code)
	}

	return &DeleteGamesBeforeOutput{
		Codes: deleted,
	}, nil
}

// AddPlayer adds a player to a game that is still waiting
func (r *redisRepository) AddPlayer(ctx context.Context, input *AddPlayerInput) error {
	if input == nil || input.Player == nil {
		return errors.New("input and player cannot be nil")
	}

	player := input.Player
	if player.GameCode == "" || player.Name == "" {
		return errors.New("game code and player name cannot be empty")
	}

	playerJSON, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	code := player.GameCode
	return r.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, code)
		if err != nil {
			return err
		}

		if game.Status != models.GameStatusWaiting {
			return ErrStateConflict
		}

		taken, err := tx.HExists(ctx, playersKey(code), player.Name).Result()
		if err != nil {
			return fmt.Errorf("failed to check player name: %w", err)
		}
		if taken {
			return ErrNameTaken
		}

		if input.MaxPlayers > 0 {
			count, err := tx.HLen(ctx, playersKey(code)).Result()
			if err != nil {
				return fmt.Errorf("failed to count players: %w", err)
			}
			if int(count) >= input.MaxPlayers {
				return ErrGameFull
			}
		}

		game.UpdatedAt = player.JoinedAt
		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("failed to marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, playersKey(code), player.Name, playerJSON)
			pipe.Set(ctx, gameKey(code), gameJSON, 0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to add player: %w", err)
		}
		return nil
	}, gameKey(code), playersKey(code))
}

// ListPlayers returns the players of a game in join order
func (r *redisRepository) ListPlayers(ctx context.Context, input *ListPlayersInput) ([]*models.Player, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	if _, err := loadGame(ctx, r.client, input.Code); err != nil {
		return nil, err
	}

	return loadPlayers(ctx, r.client, input.Code)
}

// AssignRoles writes every player's word and starts the game in one transaction
func (r *redisRepository) AssignRoles(ctx context.Context, input *AssignRolesInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and game code cannot be empty")
	}

	code := input.Code
	return r.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, code)
		if err != nil {
			return err
		}

		if game.Status != models.GameStatusWaiting {
			return ErrStateConflict
		}

		players, err := loadPlayers(ctx, tx, code)
		if err != nil {
			return err
		}

		// The assignment must cover exactly the current roster
		if len(players) != len(input.Assignments) {
			return ErrStateConflict
		}
		byName := make(map[string]RoleAssignment, len(input.Assignments))
		for _, a := range input.Assignments {
			byName[a.Name] = a
		}

		updated := make(map[string]any, len(players))
		for _, player := range players {
			a, ok := byName[player.Name]
			if !ok {
				return ErrStateConflict
			}
			player.IsImpostor = a.IsImpostor
			player.AssignedWord = a.Word

			playerJSON, err := json.Marshal(player)
			if err != nil {
				return fmt.Errorf("failed to marshal player: %w", err)
			}
			updated[player.Name] = playerJSON
		}

		game.Status = models.GameStatusInProgress
		game.Round = 1
		game.MainWord = input.MainWord
		game.DecoyWord = input.DecoyWord
		game.UpdatedAt = input.UpdatedAt

		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("failed to marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, playersKey(code), updated)
			pipe.Set(ctx, gameKey(code), gameJSON, 0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to assign roles: %w", err)
		}
		return nil
	}, gameKey(code), playersKey(code))
}

// AddSubmission records a clue if the game is in progress at that round
func (r *redisRepository) AddSubmission(ctx context.Context, input *AddSubmissionInput) error {
	if input == nil || input.Submission == nil {
		return errors.New("input and submission cannot be nil")
	}

	sub := input.Submission
	subJSON, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	code := sub.GameCode
	field := roundField(sub.Round, sub.Username)
	return r.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, code)
		if err != nil {
			return err
		}

		if game.Status != models.GameStatusInProgress || game.Round != sub.Round {
			return ErrStateConflict
		}

		exists, err := tx.HExists(ctx, submissionsKey(code), field).Result()
		if err != nil {
			return fmt.Errorf("failed to check submission: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, submissionsKey(code), field, subJSON)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to add submission: %w", err)
		}
		return nil
	}, gameKey(code), submissionsKey(code))
}

// ListSubmissions returns the clues of a game ordered by submission time
func (r *redisRepository) ListSubmissions(ctx context.Context, input *ListSubmissionsInput) ([]*models.Submission, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	raw, err := r.client.HGetAll(ctx, submissionsKey(input.Code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	subs := make([]*models.Submission, 0, len(raw))
	for field, subJSON := range raw {
		var sub models.Submission
		if err := json.Unmarshal([]byte(subJSON), &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission %s: %w", field, err)
		}
		if input.Round != 0 && sub.Round != input.Round {
			continue
		}
		subs = append(subs, &sub)
	}

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Round != subs[j].Round {
			return subs[i].Round < subs[j].Round
		}
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].Username < subs[j].Username
	})

	return subs, nil
}

// AddVote records a ballot if the game is voting at that round
func (r *redisRepository) AddVote(ctx context.Context, input *AddVoteInput) error {
	if input == nil || input.Vote == nil {
		return errors.New("input and vote cannot be nil")
	}

	vote := input.Vote
	voteJSON, err := json.Marshal(vote)
	if err != nil {
		return fmt.Errorf("failed to marshal vote: %w", err)
	}

	code := vote.GameCode
	field := roundField(vote.Round, vote.Voter)
	return r.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, code)
		if err != nil {
			return err
		}

		if game.Status != models.GameStatusVoting || game.Round != vote.Round {
			return ErrStateConflict
		}

		exists, err := tx.HExists(ctx, votesKey(code), field).Result()
		if err != nil {
			return fmt.Errorf("failed to check vote: %w", err)
		}
		if exists {
			return ErrDuplicate
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, votesKey(code), field, voteJSON)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to add vote: %w", err)
		}
		return nil
	}, gameKey(code), votesKey(code))
}

// ListVotes returns the ballots of a game ordered by time
func (r *redisRepository) ListVotes(ctx context.Context, input *ListVotesInput) ([]*models.Vote, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	raw, err := r.client.HGetAll(ctx, votesKey(input.Code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}

	votes := make([]*models.Vote, 0, len(raw))
	for field, voteJSON := range raw {
		var vote models.Vote
		if err := json.Unmarshal([]byte(voteJSON), &vote); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vote %s: %w", field, err)
		}
		if input.Round != 0 && vote.Round != input.Round {
			continue
		}
		votes = append(votes, &vote)
	}

	sort.Slice(votes, func(i, j int) bool {
		if !votes[i].CreatedAt.Equal(votes[j].CreatedAt) {
			return votes[i].CreatedAt.Before(votes[j].CreatedAt)
		}
		return votes[i].Voter < votes[j].Voter
	})

	return votes, nil
}

// TransitionGame applies a conditional status/round update
func (r *redisRepository) TransitionGame(ctx context.Context, input *TransitionGameInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and game code cannot be empty")
	}

	if !input.From.Status.CanTransitionTo(input.To.Status) {
		return ErrStateConflict
	}

	code := input.Code
	return r.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, code)
		if err != nil {
			return err
		}

		if game.Status != input.From.Status || game.Round != input.From.Round {
			return ErrStateConflict
		}

		game.Status = input.To.Status
		game.Round = input.To.Round
		game.UpdatedAt = input.UpdatedAt
		if input.Result != nil {
			game.Result = input.Result
		}

		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("failed to marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(code), gameJSON, 0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to transition game: %w", err)
		}
		return nil
	}, gameKey(code))
}

// Close is a no-op; the Redis client is owned by the caller
func (r *redisRepository) Close() error {
	return nil
}
