package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/scoresheet/internal/service"
	"go.uber.org/zap"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`
	GameID    string          `json:"game_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 订阅
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeSubscribed  = "subscribed"
)

// Hub 管理连接和对局订阅，对局变更时推送给订阅者
type Hub struct {
	clients   map[string]*Client
	watchers  map[string]map[string]*Client // gameID -> clientID -> client
	closed    bool
	clientsMu sync.RWMutex

	events    chan service.GameEvent
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[string]*Client),
		watchers:  make(map[string]map[string]*Client),
		events:    make(chan service.GameEvent, 256),
		heartbeat: 30 * time.Second,
		logger:    logger,
	}
}

// Run 运行Hub，ctx取消后关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case event := <-h.events:
			h.dispatch(event)

		case <-ticker.C:
			h.broadcast(&Message{Type: MessageTypePing, Timestamp: time.Now().Unix()})
		}
	}
}

// PublishGameEvent 投递对局事件，队列满时丢弃
func (h *Hub) PublishGameEvent(event service.GameEvent) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("事件队列已满，丢弃推送",
			zap.String("type", event.Type),
			zap.String("game_id", event.GameID))
	}
}

// Register 注册客户端，Hub已停止时返回false
func (h *Hub) Register(client *Client) bool {
	h.clientsMu.Lock()
	if h.closed {
		h.clientsMu.Unlock()
		return false
	}
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接", zap.String("client_id", client.ID))
	h.sendTo(client, &Message{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().Unix(),
		Data:      json.RawMessage(`{"client_id":"` + client.ID + `"}`),
	})
	return true
}

// Unregister 注销客户端并取消其全部订阅
func (h *Hub) Unregister(client *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		for gameID := range client.games {
			h.unwatch(client, gameID)
		}
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	if ok {
		h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
	}
}

// Subscribe 订阅对局
func (h *Hub) Subscribe(client *Client, gameID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	set, ok := h.watchers[gameID]
	if !ok {
		set = make(map[string]*Client)
		h.watchers[gameID] = set
	}
	set[client.ID] = client
	client.games[gameID] = struct{}{}
}

// Unsubscribe 取消订阅
func (h *Hub) Unsubscribe(client *Client, gameID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.unwatch(client, gameID)
}

// OnlineCount 在线连接数
func (h *Hub) OnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// WatcherCount 对局订阅者数量
func (h *Hub) WatcherCount(gameID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.watchers[gameID])
}

// unwatch 调用方持有写锁
func (h *Hub) unwatch(client *Client, gameID string) {
	delete(client.games, gameID)
	if set, ok := h.watchers[gameID]; ok {
		delete(set, client.ID)
		if len(set) == 0 {
			delete(h.watchers, gameID)
		}
	}
}

// dispatch 把对局事件推送给该对局的订阅者
func (h *Hub) dispatch(event service.GameEvent) {
	data, err := json.Marshal(event.Game)
	if err != nil {
		h.logger.Error("序列化对局失败", zap.Error(err), zap.String("game_id", event.GameID))
		return
	}
	msg := &Message{
		Type:      event.Type,
		GameID:    event.GameID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	for _, client := range h.watchers[event.GameID] {
		h.trySend(client, raw)
	}
	h.clientsMu.RUnlock()

	// 删除后订阅失效
	if event.Type == service.EventGameDeleted {
		h.clientsMu.Lock()
		for _, client := range h.watchers[event.GameID] {
			delete(client.games, event.GameID)
		}
		delete(h.watchers, event.GameID)
		h.clientsMu.Unlock()
	}
}

func (h *Hub) broadcast(msg *Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}
	h.clientsMu.RLock()
	for _, client := range h.clients {
		h.trySend(client, raw)
	}
	h.clientsMu.RUnlock()
}

func (h *Hub) sendTo(client *Client, msg *Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}
	h.clientsMu.RLock()
	if _, ok := h.clients[client.ID]; ok {
		h.trySend(client, raw)
	}
	h.clientsMu.RUnlock()
}

func (h *Hub) trySend(client *Client, raw []byte) {
	select {
	case client.Send <- raw:
	default:
		h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.closed = true
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.watchers = make(map[string]map[string]*Client)
}
