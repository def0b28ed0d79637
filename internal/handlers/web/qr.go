package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/KirkDiggler/impostor/internal/services/game"
)

// mobile-friendly size
const qrSize = 320

// joinURL is what the QR code for a game encodes
func (s *Server) joinURL(code string) string {
	return fmt.Sprintf("%s/?code=%s", s.baseURL, url.QueryEscape(code))
}

// qr serves a PNG QR code that opens the join page for a game
func (s *Server) qr(c *gin.Context) {
	out, err := s.gameService.GetState(c.Request.Context(), &game.GetStateInput{
		Code: c.Param("code"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	png, err := qrcode.Encode(s.joinURL(out.View.Code), qrcode.Medium, qrSize)
	if err != nil {
		s.fail(c, fmt.Errorf("qr generation failed: %w", err))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
