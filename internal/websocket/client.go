package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrInvalidMessage 无效的客户端消息
var ErrInvalidMessage = errors.New("无效的消息格式")

const (
	// 写超时
	writeWait = 10 * time.Second

	// 读取pong超时
	pongWait = 60 * time.Second

	// ping发送周期（必须小于pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 客户端只发送订阅类小消息
	maxMessageSize = 4 * 1024
)

// Client WebSocket客户端
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	// 已订阅的对局，由Hub加锁维护
	games map[string]struct{}
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Hub:   hub,
		Conn:  conn,
		Send:  make(chan []byte, 64),
		games: make(map[string]struct{}),
	}
}

// ReadPump 读取客户端消息，连接断开时注销
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			return
		}
		if err := c.handleMessage(data); err != nil {
			c.sendError(err.Error())
		}
	}
}

// WritePump 写出Send中的消息并定时发送ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理订阅类消息
func (c *Client) handleMessage(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return ErrInvalidMessage
	}

	switch msg.Type {
	case MessageTypePong:

	case MessageTypeSubscribe:
		if msg.GameID == "" {
			return errors.New("game_id 不能为空")
		}
		c.Hub.Subscribe(c, msg.GameID)
		c.Hub.sendTo(c, &Message{
			Type:      MessageTypeSubscribed,
			GameID:    msg.GameID,
			Timestamp: time.Now().Unix(),
		})

	case MessageTypeUnsubscribe:
		c.Hub.Unsubscribe(c, msg.GameID)

	default:
		return errors.New("不支持的消息类型: " + msg.Type)
	}
	return nil
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	c.Hub.sendTo(c, &Message{
		Type:      MessageTypeError,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
