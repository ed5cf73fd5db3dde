package realtime

import (
	"log"

	"github.com/gin-gonic/gin"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the hub. Clients join sessions with a message after connecting:
//
//	{"type": "join-session", "session_id": "..."}
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleWebSocket godoc
// @Summary Open the real-time event channel
// @Description Upgrades to WebSocket. Send join-session messages to receive file-uploaded events for those sessions.
// @Tags Realtime
// @Router /ws [get]
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	h.hub.ServeWS(conn)
}
