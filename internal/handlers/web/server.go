package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/impostor/internal/common/uuid"
	"github.com/KirkDiggler/impostor/internal/events"
	"github.com/KirkDiggler/impostor/internal/services/game"
	"github.com/KirkDiggler/impostor/internal/services/messaging"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Server exposes the game service over HTTP
type Server struct {
	engine      *gin.Engine
	gameService game.Service
	messaging   messaging.Service
	subscriber  events.Subscriber
	uuid        uuid.UUID
	baseURL     string
	minPlayers  int
	logger      zerolog.Logger
}

// Config holds the configuration for the server
type Config struct {
	// Public URL players reach the game at, used in QR codes
	BaseURL string

	// Players needed to start, only used in lobby messages
	MinPlayers int

	GameService      game.Service
	MessagingService messaging.Service

	// Change feed pushed to websocket clients
	Subscriber events.Subscriber

	// Generates request ids
	UUIDGenerator uuid.UUID

	Logger zerolog.Logger
}

// New creates a new server with every route registered
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.GameService == nil {
		return nil, errors.New("game service cannot be nil")
	}

	if cfg.MessagingService == nil {
		return nil, errors.New("messaging service cannot be nil")
	}

	if cfg.Subscriber == nil {
		return nil, errors.New("subscriber cannot be nil")
	}

	if cfg.UUIDGenerator == nil {
		return nil, errors.New("UUID generator cannot be nil")
	}

	s := &Server{
		engine:      gin.New(),
		gameService: cfg.GameService,
		messaging:   cfg.MessagingService,
		subscriber:  cfg.Subscriber,
		uuid:        cfg.UUIDGenerator,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		minPlayers:  cfg.MinPlayers,
		logger:      cfg.Logger,
	}

	s.engine.Use(s.recovery(), s.requestID(), s.requestLogger())
	s.routes()

	return s, nil
}

// Handler returns the root http handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/api/games")
	api.POST("", s.createGame)
	api.GET("/:code", s.getState)
	api.DELETE("/:code", s.deleteGame)
	api.POST("/:code/players", s.joinGame)
	api.POST("/:code/start", s.startGame)
	api.POST("/:code/clues", s.submitClue)
	api.POST("/:code/votes", s.castVote)
	api.GET("/:code/ws", s.socket)
	api.GET("/:code/qr.png", s.qr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
}
