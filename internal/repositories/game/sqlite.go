package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/KirkDiggler/impostor/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteConfig holds configuration for the SQLite game repository
type SQLiteConfig struct {
	// Path is the database file, or ":memory:" for a private in-memory database
	Path string
}

// sqliteRepository implements the Repository interface on SQLite
type sqliteRepository struct {
	db *sql.DB
}

// NewSQLite opens the database, applies the schema and returns the repository
func NewSQLite(cfg *SQLiteConfig) (*sqliteRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_txlock", "immediate")
	if cfg.Path != ":memory:" {
		params.Add("_pragma", "journal_mode(WAL)")
	}

	db, err := sql.Open("sqlite", "file:"+cfg.Path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps an in-memory
	// database alive for the lifetime of the repository
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads the fixed-width layout, falling back to RFC3339 for rows
// written before the timestamp columns were declared TEXT
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}

	t, rfcErr := time.Parse(time.RFC3339Nano, s)
	if rfcErr != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a primary key or unique constraint failure
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// inTx runs fn in a transaction, committing on success
func (r *sqliteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// querier is the read side shared by *sql.DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func gameState(ctx context.Context, q querier, code string) (models.GameStatus, int, error) {
	var (
		status string
		round  int
	)
	err := q.QueryRowContext(ctx, `SELECT status, round FROM games WHERE code = ?`, code).Scan(&status, &round)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrGameNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to get game state: %w", err)
	}
	return models.GameStatus(status), round, nil
}

// CreateGame inserts a game and its host in one transaction
func (r *sqliteRepository) CreateGame(ctx context.Context, input *CreateGameInput) error {
	if input == nil || input.Game == nil || input.Host == nil {
		return errors.New("input, game and host cannot be nil")
	}

	game := input.Game
	if game.Code == "" {
		return errors.New("game code cannot be empty")
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO games (code, host, status, round, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			game.Code, game.Host, string(game.Status), game.Round, formatTime(game.CreatedAt), formatTime(game.UpdatedAt))
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		if err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (username, game_code, joined_at) VALUES (?, ?, ?)`,
			input.Host.Name, game.Code, formatTime(input.Host.JoinedAt))
		if err != nil {
			return fmt.Errorf("failed to insert host: %w", err)
		}
		return nil
	})
}

// GetGame retrieves a game and, once it has ended, its result
func (r *sqliteRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	var (
		game                 models.Game
		status               string
		mainWord, decoyWord  sql.NullString
		votedOut, winner     sql.NullString
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT code, host, status, round, main_word, decoy_word, voted_out, winner, created_at, updated_at
		 FROM games WHERE code = ?`, input.Code).
		Scan(&game.Code, &game.Host, &status, &game.Round, &mainWord, &decoyWord, &votedOut, &winner, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	game.Status = models.GameStatus(status)
	game.MainWord = mainWord.String
	game.DecoyWord = decoyWord.String
	if game.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if game.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if winner.Valid {
		result, err := r.loadResult(ctx, &game, votedOut.String, models.Team(winner.String))
		if err != nil {
			return nil, err
		}
		game.Result = result
	}

	return &game, nil
}

// loadResult rebuilds the stored outcome from the users and votes tables
func (r *sqliteRepository) loadResult(ctx context.Context, game *models.Game, votedOut string, winner models.Team) (*models.Result, error) {
	result := &models.Result{
		VotedOut: votedOut,
		Winner:   winner,
		Tally:    map[string]int{},
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT username FROM users WHERE game_code = ? AND is_impostor = TRUE`, game.Code).Scan(&result.Impostor)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get impostor: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT votee, COUNT(*) FROM votes WHERE game_code = ? AND round = ? GROUP BY votee`, game.Code, game.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			votee string
			count int
		)
		if err := rows.Scan(&votee, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		result.Tally[votee] = count
	}

	return result, rows.Err()
}

// DeleteGame removes a game; foreign keys cascade to its children
func (r *sqliteRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and game code cannot be empty")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE code = ?`, input.Code)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// DeleteGamesBefore removes every game created strictly before the cutoff
func (r *sqliteRepository) DeleteGamesBefore(ctx context.Context, input *DeleteGamesBeforeInput) (*DeleteGamesBeforeOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	cutoff := formatTime(input.Cutoff)
	codes := []string{}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT code FROM games WHERE created_at < ? ORDER BY created_at, code`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to list expired games: %w", err)
		}
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan game code: %w", err)
			}
			codes = append(codes, code)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE created_at < ?`, cutoff); err != nil {
			return fmt.Errorf("failed to delete expired games: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &DeleteGamesBeforeOutput{
		Codes: codes,
	}, nil
}

// AddPlayer adds a player to a game that is still waiting
func (r *sqliteRepository) AddPlayer(ctx context.Context, input *AddPlayerInput) error {
	if input == nil || input.Player == nil {
		return errors.New("input and player cannot be nil")
	}

	player := input.Player
	if player.GameCode == "" || player.Name == "" {
		return errors.New("game code and player name cannot be empty")
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		status, _, err := gameState(ctx, tx, player.GameCode)
		if err != nil {
			return err
		}
		if status != models.GameStatusWaiting {
			return ErrStateConflict
		}

		var taken, count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(SUM(username = ?), 0) FROM users WHERE game_code = ?`,
			player.Name, player.GameCode).Scan(&count, &taken)
		if err != nil {
			return fmt.Errorf("failed to count players: %w", err)
		}
		if taken > 0 {
			return ErrNameTaken
		}
		if input.MaxPlayers > 0 && count >= input.MaxPlayers {
			return ErrGameFull
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (username, game_code, joined_at) VALUES (?, ?, ?)`,
			player.Name, player.GameCode, formatTime(player.JoinedAt))
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		if err != nil {
			return fmt.Errorf("failed to insert player: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE games SET updated_at = ? WHERE code = ?`,
			formatTime(player.JoinedAt), player.GameCode)
		if err != nil {
			return fmt.Errorf("failed to touch game: %w", err)
		}
		return nil
	})
}

// ListPlayers returns the players of a game in join order
func (r *sqliteRepository) ListPlayers(ctx context.Context, input *ListPlayersInput) ([]*models.Player, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	if _, _, err := gameState(ctx, r.db, input.Code); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT username, is_impostor, assigned_word, joined_at FROM users
		 WHERE game_code = ? ORDER BY joined_at, username`, input.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []*models.Player{}
	for rows.Next() {
		var (
			player   = &models.Player{GameCode: input.Code}
			word     sql.NullString
			joinedAt string
		)
		if err := rows.Scan(&player.Name, &player.IsImpostor, &word, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		player.AssignedWord = word.String
		if player.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	return players, rows.Err()
}

// AssignRoles writes every player's word and starts the game in one transaction
func (r *sqliteRepository) AssignRoles(ctx context.Context, input *AssignRolesInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and game code cannot be empty")
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		status, _, err := gameState(ctx, tx, input.Code)
		if err != nil {
			return err
		}
		if status != models.GameStatusWaiting {
			return ErrStateConflict
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE game_code = ?`, input.Code).Scan(&count); err != nil {
			return fmt.Errorf("failed to count players: %w", err)
		}
		if count != len(input.Assignments) {
			return ErrStateConflict
		}

		for _, a := range input.Assignments {
			res, err := tx.ExecContext(ctx,
				`UPDATE users SET is_impostor = ?, assigned_word = ? WHERE game_code = ? AND username = ?`,
				a.IsImpostor, a.Word, input.Code, a.Name)
			if err != nil {
				return fmt.Errorf("failed to assign role to %s: %w", a.Name, err)
			}
			if n, err := res.RowsAffected(); err != nil || n != 1 {
				return ErrStateConflict
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE games SET status = ?, round = 1, main_word = ?, decoy_word = ?, updated_at = ?
			 WHERE code = ? AND status = ?`,
			string(models.GameStatusInProgress), input.MainWord, input.DecoyWord, formatTime(input.UpdatedAt),
			input.Code, string(models.GameStatusWaiting))
		if err != nil {
			return fmt.Errorf("failed to start game: %w", err)
		}
		return nil
	})
}

// AddSubmission records a clue if the game is in progress at that round
func (r *sqliteRepository) AddSubmission(ctx context.Context, input *AddSubmissionInput) error {
	if input == nil || input.Submission == nil {
		return errors.New("input and submission cannot be nil")
	}

	sub := input.Submission
	return r.inTx(ctx, func(tx *sql.Tx) error {
		status, round, err := gameState(ctx, tx, sub.GameCode)
		if err != nil {
			return err
		}
		if status != models.GameStatusInProgress || round != sub.Round {
			return ErrStateConflict
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO submissions (id, game_code, username, round, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.GameCode, sub.Username, sub.Round, sub.Content, formatTime(sub.CreatedAt))
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}
		return nil
	})
}

// ListSubmissions returns the clues of a game ordered by round and time
func (r *sqliteRepository) ListSubmissions(ctx context.Context, input *ListSubmissionsInput) ([]*models.Submission, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, round, content, created_at FROM submissions
		 WHERE game_code = ? AND (? = 0 OR round = ?)
		 ORDER BY round, created_at, username`, input.Code, input.Round, input.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []*models.Submission{}
	for rows.Next() {
		var (
			sub       = &models.Submission{GameCode: input.Code}
			createdAt string
		)
		if err := rows.Scan(&sub.ID, &sub.Username, &sub.Round, &sub.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if sub.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// AddVote records a ballot if the game is voting at that round
func (r *sqliteRepository) AddVote(ctx context.Context, input *AddVoteInput) error {
	if input == nil || input.Vote == nil {
		return errors.New("input and vote cannot be nil")
	}

	vote := input.Vote
	return r.inTx(ctx, func(tx *sql.Tx) error {
		status, round, err := gameState(ctx, tx, vote.GameCode)
		if err != nil {
			return err
		}
		if status != models.GameStatusVoting || round != vote.Round {
			return ErrStateConflict
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (id, game_code, voter, votee, round, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			vote.ID, vote.GameCode, vote.Voter, vote.Votee, vote.Round, formatTime(vote.CreatedAt))
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
		return nil
	})
}

// ListVotes returns the ballots of a game ordered by time
func (r *sqliteRepository) ListVotes(ctx context.Context, input *ListVotesInput) ([]*models.Vote, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and game code cannot be empty")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, voter, votee, round, created_at FROM votes
		 WHERE game_code = ? AND (? = 0 OR round = ?)
		 ORDER BY created_at, voter`, input.Code, input.Round, input.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	votes := []*models.Vote{}
	for rows.Next() {
		var (
			vote      = &models.Vote{GameCode: input.Code}
			createdAt string
		)
		if err := rows.Scan(&vote.ID, &vote.Voter, &vote.Votee, &vote.Round, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		if vote.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}

	return votes, rows.Err()
}

// TransitionGame applies a conditional status/round update
func (r *sqliteRepository) TransitionGame(ctx context.Context, input *TransitionGameInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and game code cannot be empty")
	}

	if !input.From.Status.CanTransitionTo(input.To.Status) {
		return ErrStateConflict
	}

	var votedOut, winner sql.NullString
	if input.Result != nil {
		votedOut = nullString(input.Result.VotedOut)
		winner = nullString(string(input.Result.Winner))
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE games SET status = ?, round = ?, updated_at = ?,
			     voted_out = COALESCE(?, voted_out), winner = COALESCE(?, winner)
			 WHERE code = ? AND status = ? AND round = ?`,
			string(input.To.Status), input.To.Round, formatTime(input.UpdatedAt), votedOut, winner,
			input.Code, string(input.From.Status), input.From.Round)
		if err != nil {
			return fmt.Errorf("failed to transition game: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to transition game: %w", err)
		}
		if n == 1 {
			return nil
		}

		if _, _, err := gameState(ctx, tx, input.Code); err != nil {
			return err
		}
		return ErrStateConflict
	})
}

// Close closes the database
func (r *sqliteRepository) Close() error {
	return r.db.Close()
}
