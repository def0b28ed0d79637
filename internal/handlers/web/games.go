package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KirkDiggler/impostor/internal/services/game"
	"github.com/KirkDiggler/impostor/internal/services/messaging"
)

type createGameRequest struct {
	Host string `json:"host"`
}

type joinGameRequest struct {
	Name string `json:"name"`
}

type startGameRequest struct {
	Requester string `json:"requester"`
}

type submitClueRequest struct {
	Username string `json:"username"`
	Round    int    `json:"round"`
	Text     string `json:"text"`
}

type castVoteRequest struct {
	Voter string `json:"voter"`
	Votee string `json:"votee"`
	Round int    `json:"round"`
}

type stateResponse struct {
	Game    *game.GameView `json:"game"`
	Message string         `json:"message"`
}

func (s *Server) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	out, err := s.gameService.CreateGame(c.Request.Context(), &game.CreateGameInput{
		HostName: req.Host,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": out.Code})
}

func (s *Server) joinGame(c *gin.Context) {
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	out, err := s.gameService.JoinGame(ctx, &game.JoinGameInput{
		Code:       c.Param("code"),
		PlayerName: req.Name,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	// the service stores the trimmed name
	var message string
	msg, err := s.messaging.GetJoinGameMessage(ctx, &messaging.GetJoinGameMessageInput{
		PlayerName:  strings.TrimSpace(req.Name),
		PlayerCount: len(out.Players),
		MinPlayers:  s.minPlayers,
	})
	if err == nil {
		message = msg.Message
	}

	c.JSON(http.StatusOK, gin.H{"players": out.Players, "message": message})
}

func (s *Server) startGame(c *gin.Context) {
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	out, err := s.gameService.StartGame(c.Request.Context(), &game.StartGameInput{
		Code:      c.Param("code"),
		Requester: req.Requester,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"round": out.Round})
}

func (s *Server) submitClue(c *gin.Context) {
	var req submitClueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	out, err := s.gameService.SubmitClue(c.Request.Context(), &game.SubmitClueInput{
		Code:     c.Param("code"),
		Username: req.Username,
		Round:    req.Round,
		Text:     req.Text,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"round":          out.Round,
		"round_advanced": out.RoundAdvanced,
		"voting_started": out.VotingStarted,
	})
}

func (s *Server) castVote(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	out, err := s.gameService.CastVote(ctx, &game.CastVoteInput{
		Code:  c.Param("code"),
		Voter: req.Voter,
		Votee: req.Votee,
		Round: req.Round,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	body := gin.H{"resolved": out.Resolved}
	if out.Resolved && out.Result != nil {
		body["result"] = out.Result
		if msg, err := s.messaging.GetResultMessage(ctx, &messaging.GetResultMessageInput{Result: out.Result}); err == nil {
			body["title"] = msg.Title
			body["message"] = msg.Message
		}
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) getState(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := c.Query("viewer")

	out, err := s.gameService.GetState(ctx, &game.GetStateInput{
		Code:   c.Param("code"),
		Viewer: viewer,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &stateResponse{
		Game:    out.View,
		Message: s.statusMessage(ctx, out.View, viewer),
	})
}

func (s *Server) deleteGame(c *gin.Context) {
	requester := strings.TrimSpace(c.Query("requester"))
	if requester == "" {
		s.fail(c, fmt.Errorf("%w: requester is required", game.ErrInvalidInput))
		return
	}

	out, err := s.gameService.DeleteGame(c.Request.Context(), &game.DeleteGameInput{
		Code:      c.Param("code"),
		Requester: requester,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": out.Code})
}

// statusMessage tells the viewer what to do next, empty if no message
// could be produced
func (s *Server) statusMessage(ctx context.Context, view *game.GameView, viewer string) string {
	input := &messaging.GetStatusMessageInput{
		Status:      view.Status,
		Round:       view.Round,
		MaxRounds:   view.MaxRounds,
		PlayerCount: len(view.Players),
		MinPlayers:  view.MinPlayers,
		Result:      view.Result,
	}

	for _, p := range view.Players {
		if p.Name == viewer {
			input.IsHost = p.IsHost
			input.HasSubmitted = p.HasSubmitted
			input.HasVoted = p.HasVoted
			break
		}
	}

	out, err := s.messaging.GetStatusMessage(ctx, input)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", view.Code).Msg("failed to build status message")
		return ""
	}

	return out.Message
}
