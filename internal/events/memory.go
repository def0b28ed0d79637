package events

import (
	"context"
	"errors"
	"sync"
)

// memoryBroker fans events out to subscribers in this process
type memoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan *Event]struct{}
}

// NewMemory creates an in-process broker
func NewMemory() *memoryBroker {
	return &memoryBroker{
		subs: make(map[string]map[chan *Event]struct{}),
	}
}

// Publish delivers the event to every current subscriber of its game.
// A subscriber whose buffer is full misses the event.
func (b *memoryBroker) Publish(_ context.Context, event *Event) error {
	if event == nil || event.Code == "" {
		return errors.New("event and game code cannot be empty")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[event.Code] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber for code
func (b *memoryBroker) Subscribe(ctx context.Context, code string) (<-chan *Event, func(), error) {
	if code == "" {
		return nil, nil, errors.New("game code cannot be empty")
	}

	ch := make(chan *Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[chan *Event]struct{})
	}
	b.subs[code][ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[code], ch)
			if len(b.subs[code]) == 0 {
				delete(b.subs, code)
			}
			close(ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}
