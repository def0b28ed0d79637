package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/impostor/internal/ai"
	"github.com/KirkDiggler/impostor/internal/ai/ollama"
	"github.com/KirkDiggler/impostor/internal/ai/openai"
	"github.com/KirkDiggler/impostor/internal/common/clock"
	"github.com/KirkDiggler/impostor/internal/common/random"
	"github.com/KirkDiggler/impostor/internal/common/uuid"
	"github.com/KirkDiggler/impostor/internal/config"
	"github.com/KirkDiggler/impostor/internal/events"
	"github.com/KirkDiggler/impostor/internal/handlers/web"
	"github.com/KirkDiggler/impostor/internal/logging"
	gameRepo "github.com/KirkDiggler/impostor/internal/repositories/game"
	gameService "github.com/KirkDiggler/impostor/internal/services/game"
	"github.com/KirkDiggler/impostor/internal/services/messaging"
	"github.com/KirkDiggler/impostor/internal/services/sweeper"
	"github.com/KirkDiggler/impostor/internal/services/wordpair"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, run).ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(&logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return err
	}

	randomSource := random.New(&random.Config{Seed: cfg.Seed})
	systemClock := clock.New()
	uuidGenerator := uuid.New()

	// Initialize storage and the change feed
	repo, broker, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Initialize word pair provider
	wordPairs, err := newWordPairProvider(cfg, randomSource, logger)
	if err != nil {
		return err
	}

	// Initialize game service
	gameSvc, err := gameService.New(&gameService.Config{
		MinPlayers:        cfg.MinPlayers,
		MaxPlayers:        cfg.MaxPlayers,
		MaxRounds:         cfg.MaxRounds,
		GenerationTimeout: cfg.GenerationTimeout,
		GameRepo:          repo,
		WordPairProvider:  wordPairs,
		Random:            randomSource,
		Clock:             systemClock,
		UUIDGenerator:     uuidGenerator,
		Publisher:         broker,
		Logger:            logger.With().Str("component", "game").Logger(),
	})
	if err != nil {
		return fmt.Errorf("failed to create game service: %w", err)
	}

	messagingSvc, err := messaging.New(&messaging.Config{
		Random: randomSource,
	})
	if err != nil {
		return fmt.Errorf("failed to create messaging service: %w", err)
	}

	// Start the retention sweeper
	sweep, err := sweeper.New(&sweeper.Config{
		Repository: repo,
		Publisher:  broker,
		Clock:      systemClock,
		Retention:  cfg.Retention,
		Interval:   cfg.SweepInterval,
		Logger:     logger.With().Str("component", "sweeper").Logger(),
	})
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}
	go sweep.Run(ctx)

	gin.SetMode(gin.ReleaseMode)

	server, err := web.New(&web.Config{
		BaseURL:          cfg.BaseURL,
		MinPlayers:       cfg.MinPlayers,
		GameService:      gameSvc,
		MessagingService: messagingSvc,
		Subscriber:       broker,
		UUIDGenerator:    uuidGenerator,
		Logger:           logger.With().Str("component", "http").Logger(),
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	logger.Info().
		Str("store", cfg.Store).
		Str("word_provider", cfg.WordProvider).
		Bool("word_fallback", cfg.WordFallback).
		Msg("impostor starting")

	if err := server.ListenAndServe(ctx, cfg.Addr()); err != nil {
		return err
	}

	logger.Info().Msg("impostor has been shut down")
	return nil
}

// newStore opens the configured repository. Redis deployments share their
// change feed through Redis pub/sub, SQLite is single-process and keeps it
// in memory.
func newStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (gameRepo.Repository, events.Broker, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		repo, err := gameRepo.NewSQLite(&gameRepo.SQLiteConfig{
			Path: cfg.SQLitePath,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}

		cleanup := func() {
			if err := repo.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close sqlite store")
			}
		}

		return repo, events.NewMemory(), cleanup, nil
	default:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		// Test Redis connection
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		repo, err := gameRepo.NewRedis(&gameRepo.Config{
			RedisClient: redisClient,
		})
		if err != nil {
			_ = redisClient.Close()
			return nil, nil, nil, fmt.Errorf("failed to create game repository: %w", err)
		}

		broker, err := events.NewRedis(&events.RedisConfig{
			Client: redisClient,
			Logger: logger.With().Str("component", "events").Logger(),
		})
		if err != nil {
			_ = redisClient.Close()
			return nil, nil, nil, fmt.Errorf("failed to create event broker: %w", err)
		}

		cleanup := func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis client")
			}
		}

		return repo, broker, cleanup, nil
	}
}

func newWordPairProvider(cfg *config.Config, randomSource random.Source, logger zerolog.Logger) (wordpair.Provider, error) {
	static, err := wordpair.NewStatic(&wordpair.StaticConfig{
		Random: randomSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create static word pairs: %w", err)
	}

	var backend ai.Provider

	switch cfg.WordProvider {
	case config.WordProviderStatic:
		return static, nil
	case config.WordProviderOllama:
		backend, err = ollama.New(&ollama.Config{
			Host: cfg.OllamaHost,
		})
	default:
		backend, err = openai.New(&openai.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.WordProvider, err)
	}

	generated, err := wordpair.NewAI(&wordpair.AIConfig{
		Provider: backend,
		Model:    cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create word pair generator: %w", err)
	}

	if !cfg.WordFallback {
		return generated, nil
	}

	return wordpair.NewFallback(&wordpair.FallbackConfig{
		Primary:   generated,
		Secondary: static,
		Logger:    logger.With().Str("component", "wordpair").Logger(),
	})
}
