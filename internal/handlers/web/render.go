package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KirkDiggler/impostor/internal/services/game"
	"github.com/KirkDiggler/impostor/internal/services/messaging"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	var gameErr game.GameError
	if !errors.As(err, &gameErr) {
		return http.StatusInternalServerError
	}

	switch gameErr {
	case game.ErrGameNotFound:
		return http.StatusNotFound
	case game.ErrNameTaken, game.ErrDuplicateSubmission, game.ErrDuplicateVote, game.ErrGameFull:
		return http.StatusConflict
	case game.ErrInvalidGameState, game.ErrUnknownVotee, game.ErrSelfVote, game.ErrInvalidInput:
		return http.StatusUnprocessableEntity
	case game.ErrNotHost, game.ErrPlayerNotInGame:
		return http.StatusForbidden
	case game.ErrGenerationFailed:
		return http.StatusBadGateway
	case game.ErrCodeSpaceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with a player-facing message
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)

	event := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString(requestIDKey)).
		Msg("request failed")

	body := errorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}

	out, msgErr := s.messaging.GetErrorMessage(c.Request.Context(), &messaging.GetErrorMessageInput{Err: err})
	if msgErr != nil || out == nil {
		body.Message = body.Error
	} else {
		body.Message = out.Message
	}

	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a body that could not be decoded
func (s *Server) badRequest(c *gin.Context, err error) {
	s.fail(c, fmt.Errorf("%w: %v", game.ErrInvalidInput, err))
}
