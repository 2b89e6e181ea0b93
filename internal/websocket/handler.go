package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler 升级HTTP连接并交给Hub
type Handler struct {
	hub *Hub
}

// NewHandler 创建处理器
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS 建立连接，带 game_id 查询参数时直接订阅该对局
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("WebSocket升级失败", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	if gameID := c.Query("game_id"); gameID != "" {
		h.hub.Subscribe(client, gameID)
	}

	go client.WritePump()
	go client.ReadPump()
}
