package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "events:"

// RedisConfig holds configuration for the Redis broker
type RedisConfig struct {
	// Redis client
	Client *redis.Client

	Logger zerolog.Logger
}

// redisBroker publishes events over Redis pub/sub so every server sharing
// the Redis instance sees them
type redisBroker struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedis creates a Redis pub/sub broker
func NewRedis(cfg *RedisConfig) (*redisBroker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	return &redisBroker{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

func channel(code string) string {
	return channelPrefix + code
}

// Publish sends the event as JSON on the game's channel
func (b *redisBroker) Publish(ctx context.Context, event *Event) error {
	if event == nil || event.Code == "" {
		return errors.New("event and game code cannot be empty")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, channel(event.Code), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the game's channel until ctx ends or the returned
// function is called
func (b *redisBroker) Subscribe(ctx context.Context, code string) (<-chan *Event, func(), error) {
	if code == "" {
		return nil, nil, errors.New("game code cannot be empty")
	}

	pubsub := b.client.Subscribe(ctx, channel(code))

	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan *Event, subscriberBuffer)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
					continue
				}

				select {
				case out <- &event:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}
