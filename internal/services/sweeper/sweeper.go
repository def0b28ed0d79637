package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KirkDiggler/impostor/internal/common/clock"
	"github.com/KirkDiggler/impostor/internal/events"
	"github.com/KirkDiggler/impostor/internal/models"
	gameRepo "github.com/KirkDiggler/impostor/internal/repositories/game"
	"github.com/rs/zerolog"
)

const (
	defaultRetention = 24 * time.Hour
	defaultInterval  = 5 * time.Minute
)

// Config holds configuration for the retention sweeper
type Config struct {
	// Repository holds the games to purge
	Repository gameRepo.Repository

	// Optional change feed for deleted events
	Publisher events.Publisher

	Clock clock.Clock

	// Games created longer ago than this are deleted
	Retention time.Duration

	// Time between sweeps
	Interval time.Duration

	Logger zerolog.Logger
}

// Sweeper deletes games older than the retention window
type Sweeper struct {
	repo      gameRepo.Repository
	publisher events.Publisher
	clock     clock.Clock
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a new sweeper
func New(cfg *Config) (*Sweeper, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Repository == nil {
		return nil, errors.New("repository cannot be nil")
	}

	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Sweeper{
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
		retention: retention,
		interval:  interval,
		logger:    cfg.Logger,
	}, nil
}

// Sweep deletes every game created before now minus the retention window
// and returns how many were removed
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	out, err := s.repo.DeleteGamesBefore(ctx, &gameRepo.DeleteGamesBeforeInput{
		Cutoff: now.Add(-s.retention),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired games: %w", err)
	}

	for _, code := range out.Codes {
		if s.publisher == nil {
			break
		}
		err := s.publisher.Publish(ctx, &events.Event{
			Code:   code,
			Kind:   events.KindDeleted,
			Status: models.GameStatusEnded,
			At:     now,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("code", code).Msg("failed to publish game event")
		}
	}

	if len(out.Codes) > 0 {
		s.logger.Info().Int("purged", len(out.Codes)).Msg("expired games removed")
	}

	return len(out.Codes), nil
}

// Run sweeps once, then on every interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("sweep failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
