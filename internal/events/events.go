package events

//go:generate mockgen -package=mocks -destination=mocks/mock_events.go github.com/KirkDiggler/impostor/internal/events Publisher,Subscriber,Broker

import (
	"context"
	"time"

	"github.com/KirkDiggler/impostor/internal/models"
)

// Kind names what happened to a game
type Kind string

const (
	KindCreated       Kind = "created"
	KindPlayerJoined  Kind = "player_joined"
	KindStarted       Kind = "started"
	KindClueSubmitted Kind = "clue_submitted"
	KindRoundAdvanced Kind = "round_advanced"
	KindVotingStarted Kind = "voting_started"
	KindVoteCast      Kind = "vote_cast"
	KindEnded         Kind = "ended"
	KindDeleted       Kind = "deleted"
)

// subscriberBuffer is how many events a subscriber may lag behind before
// new events are dropped for it
const subscriberBuffer = 32

// Event tells subscribers that a game changed. It carries no secrets;
// clients re-read the game state for details.
type Event struct {
	Code   string            `json:"code"`
	Kind   Kind              `json:"kind"`
	Status models.GameStatus `json:"status"`
	Round  int               `json:"round"`

	// Actor is the player whose action caused the change, if any
	Actor string `json:"actor,omitempty"`

	At time.Time `json:"at"`
}

// Publisher sends game change events
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Subscriber receives game change events for one game code
type Subscriber interface {
	// Subscribe returns a channel of events for code and a function that
	// ends the subscription and closes the channel
	Subscribe(ctx context.Context, code string) (<-chan *Event, func(), error)
}

// Broker is both ends of the change feed
type Broker interface {
	Publisher
	Subscriber
}
