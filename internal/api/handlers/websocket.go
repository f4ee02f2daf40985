package handlers

import (
	"signage-service/internal/websocket"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *websocket.Hub
	upgrader *gorillaws.Upgrader
	cfg      websocket.ClientConfig
}

func NewWSHandler(hub *websocket.Hub, upgrader *gorillaws.Upgrader, cfg websocket.ClientConfig) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader, cfg: cfg}
}

// HandleWebSocket upgrades GET /ws. The player identifies itself with a
// PLAYER_REGISTER message carrying its device key, then receives LOAD_PLAYLIST
// pushes and may send PLAYER_STATUS reports.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	websocket.ServeWS(h.hub, h.upgrader, h.cfg, c.Writer, c.Request)
}
