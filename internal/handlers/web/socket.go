package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/KirkDiggler/impostor/internal/events"
	"github.com/KirkDiggler/impostor/internal/services/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

const (
	socketTypeState   = "state"
	socketTypeDeleted = "deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// socketMessage is pushed to clients whenever the game changes. Each client
// gets the view of its own viewer, so secrets never cross connections.
type socketMessage struct {
	Type    string         `json:"type"`
	Game    *game.GameView `json:"game,omitempty"`
	Message string         `json:"message,omitempty"`
}

// socket streams the viewer's game state: once on connect, then again
// after every change to the game
func (s *Server) socket(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// events are published under the canonical code
	code := game.NormalizeCode(c.Param("code"))
	viewer := c.Query("viewer")

	feed, unsubscribe, err := s.subscriber.Subscribe(ctx, code)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer unsubscribe()

	state, err := s.gameService.GetState(ctx, &game.GetStateInput{Code: code, Viewer: viewer})
	if err != nil {
		s.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Client frames are ignored. Reading keeps pongs flowing and notices
	// when the client goes away.
	go func() {
		defer cancel()

		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := s.writeState(ctx, conn, state.View, viewer); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-feed:
			if !ok {
				return
			}

			if event.Kind == events.KindDeleted {
				s.writeDeleted(conn)
				return
			}

			out, err := s.gameService.GetState(ctx, &game.GetStateInput{Code: code, Viewer: viewer})
			if errors.Is(err, game.ErrGameNotFound) {
				s.writeDeleted(conn)
				return
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("code", code).Msg("failed to refresh game state")
				continue
			}

			if err := s.writeState(ctx, conn, out.View, viewer); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeState(ctx context.Context, conn *websocket.Conn, view *game.GameView, viewer string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(&socketMessage{
		Type:    socketTypeState,
		Game:    view,
		Message: s.statusMessage(ctx, view, viewer),
	})
}

func (s *Server) writeDeleted(conn *websocket.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(&socketMessage{Type: socketTypeDeleted})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game deleted"),
		time.Now().Add(writeWait))
}
