package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/KirkDiggler/impostor/internal/common/random"
	"github.com/KirkDiggler/impostor/internal/models"
	"github.com/KirkDiggler/impostor/internal/services/game"
)

// service implements the Service interface
type service struct {
	random random.Source
}

// New creates a new messaging service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.Random == nil {
		return nil, ErrNilRandom
	}

	return &service{
		random: cfg.Random,
	}, nil
}

func (s *service) pick(messages []string) string {
	return messages[s.random.Intn(len(messages))]
}

// GetJoinGameMessage returns a message for when a player joins a game
func (s *service) GetJoinGameMessage(ctx context.Context, input *GetJoinGameMessageInput) (*GetJoinGameMessageOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	messages := []string{
		fmt.Sprintf("Welcome, %s! Keep your word to yourself.", input.PlayerName),
		fmt.Sprintf("%s has entered the room. Trust no one.", input.PlayerName),
		fmt.Sprintf("A new suspect appears: %s.", input.PlayerName),
		fmt.Sprintf("%s joined. One of you is not who they seem.", input.PlayerName),
	}

	message := s.pick(messages)
	if missing := input.MinPlayers - input.PlayerCount; missing > 0 {
		message = fmt.Sprintf("%s Waiting for %d more %s.", message, missing, plural(missing, "player", "players"))
	}

	return &GetJoinGameMessageOutput{
		Message: message,
	}, nil
}

// GetStatusMessage returns a message telling the viewer what to do next
func (s *service) GetStatusMessage(ctx context.Context, input *GetStatusMessageInput) (*GetStatusMessageOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	var message string

	switch input.Status {
	case models.GameStatusWaiting:
		missing := input.MinPlayers - input.PlayerCount
		switch {
		case missing > 0:
			message = fmt.Sprintf("Waiting for players. Need %d more to start.", missing)
		case input.IsHost:
			message = s.pick([]string{
				"Everyone's here. Start the game when you're ready!",
				"The table is set. Hit start whenever you like.",
			})
		default:
			message = s.pick([]string{
				"Waiting for the host to start the game.",
				"Hang tight, the host will start things soon.",
			})
		}
	case models.GameStatusInProgress:
		if input.HasSubmitted {
			message = fmt.Sprintf("Round %d of %d. Clue in! Waiting for the others.", input.Round, input.MaxRounds)
		} else {
			message = s.pick([]string{
				fmt.Sprintf("Round %d of %d. Give a clue about your word without giving it away.", input.Round, input.MaxRounds),
				fmt.Sprintf("Round %d of %d. Your turn to drop a hint. Not too obvious!", input.Round, input.MaxRounds),
			})
		}
	case models.GameStatusVoting:
		if input.HasVoted {
			message = "Ballot cast. Waiting for everyone else to vote."
		} else {
			message = s.pick([]string{
				"Time to vote! Who has the different word?",
				"Point your finger. Who's the impostor?",
			})
		}
	case models.GameStatusEnded:
		if input.Result != nil {
			out, err := s.GetResultMessage(ctx, &GetResultMessageInput{Result: input.Result})
			if err != nil {
				return nil, err
			}
			message = out.Title
		} else {
			message = "This game is over."
		}
	default:
		message = "This game is in a state we don't recognize."
	}

	return &GetStatusMessageOutput{
		Message: message,
	}, nil
}

// GetResultMessage returns the end-of-game headline
func (s *service) GetResultMessage(ctx context.Context, input *GetResultMessageInput) (*GetResultMessageOutput, error) {
	if input == nil || input.Result == nil {
		return nil, ErrNilInput
	}

	result := input.Result

	switch {
	case result.VotedOut == "":
		return &GetResultMessageOutput{
			Title: "The vote was tied. The impostor escaped!",
			Message: s.pick([]string{
				fmt.Sprintf("Nobody could agree, and %s slipped away in the confusion.", result.Impostor),
				fmt.Sprintf("A split vote lets %s walk free.", result.Impostor),
			}),
		}, nil
	case result.VotedOut == result.Impostor:
		return &GetResultMessageOutput{
			Title: "The impostor was caught! Regular players win!",
			Message: s.pick([]string{
				fmt.Sprintf("%s was the impostor all along.", result.Impostor),
				fmt.Sprintf("Nice work, detectives. %s never stood a chance.", result.Impostor),
			}),
		}, nil
	default:
		return &GetResultMessageOutput{
			Title: "The impostor escaped!",
			Message: s.pick([]string{
				fmt.Sprintf("%s was voted out, but %s was the impostor.", result.VotedOut, result.Impostor),
				fmt.Sprintf("Poor %s took the fall while %s got away.", result.VotedOut, result.Impostor),
			}),
		}, nil
	}
}

// GetErrorMessage returns a user-friendly error message
func (s *service) GetErrorMessage(ctx context.Context, input *GetErrorMessageInput) (*GetErrorMessageOutput, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	var gameErr game.GameError
	if !errors.As(input.Err, &gameErr) {
		return &GetErrorMessageOutput{
			Message: s.pick([]string{
				"Something went wrong on our end. Try again in a moment.",
				"Well, that wasn't supposed to happen. Please try again.",
			}),
		}, nil
	}

	var messages []string

	switch gameErr {
	case game.ErrGameNotFound:
		messages = []string{
			"We couldn't find a game with that code. Double-check it?",
			"That game doesn't exist, or it has been cleaned up.",
		}
	case game.ErrInvalidGameState:
		messages = []string{
			"You can't do that right now. The game has moved on.",
			"Not at this stage of the game.",
		}
	case game.ErrNameTaken:
		messages = []string{
			"Someone in this game already has that name. Pick another!",
			"That name is taken here. Be original!",
		}
	case game.ErrDuplicateSubmission:
		messages = []string{
			"You've already given a clue this round.",
			"One clue per round! Wait for the others.",
		}
	case game.ErrDuplicateVote:
		messages = []string{
			"You've already voted. No take-backs!",
			"One ballot each, and yours is in.",
		}
	case game.ErrUnknownVotee:
		messages = []string{
			"There's nobody by that name in this game.",
		}
	case game.ErrSelfVote:
		messages = []string{
			"Voting for yourself? Bold, but not allowed.",
		}
	case game.ErrGenerationFailed:
		messages = []string{
			"We couldn't come up with words for this game. Try starting again.",
			"The word generator is stumped. Give it another go.",
		}
	case game.ErrPlayerNotInGame:
		messages = []string{
			"You're not part of this game. Join it first!",
		}
	case game.ErrGameFull:
		messages = []string{
			"This game is full. Start your own!",
			"No more room at this table.",
		}
	case game.ErrNotHost:
		messages = []string{
			"Only the host can do that.",
		}
	case game.ErrInvalidInput:
		messages = []string{
			"Something about that request doesn't look right. Check your input.",
		}
	case game.ErrCodeSpaceExhausted:
		messages = []string{
			"We ran out of game codes for the moment. Try again shortly.",
		}
	default:
		messages = []string{
			"Something went wrong. Try again in a moment.",
		}
	}

	return &GetErrorMessageOutput{
		Message: s.pick(messages),
	}, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
