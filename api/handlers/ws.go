package handlers

import (
	"log"
	"net/http"

	"chirp/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	manager *services.WSConnManager
}

func NewWSHandler(manager *services.WSConnManager) *WSHandler {
	return &WSHandler{manager: manager}
}

// Feed - WebSocket endpoint ленты, анонимные зрители тоже получают события
func (h *WSHandler) Feed(c *gin.Context) {
	userID, _ := currentUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	wc := h.manager.Add(userID, conn)
	defer h.manager.Remove(userID, conn)

	_ = wc.Write([]byte(`{"event":"connected","message":"WebSocket connected"}`))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("WebSocket read error:", err)
			}
			break
		}
	}
}
