package service

// 对局事件类型
const (
	EventGameCreated = "game_created"
	EventGameUpdated = "game_updated"
	EventGameDeleted = "game_deleted"
)

// GameEvent 对局变更事件，写入提交后发布
type GameEvent struct {
	Type   string      `json:"type"`
	GameID string      `json:"game_id"`
	Game   *GameDetail `json:"game,omitempty"`
}

// EventPublisher 对局事件发布者，实现不得阻塞调用方
type EventPublisher interface {
	PublishGameEvent(event GameEvent)
}

// nopPublisher 不发布任何事件
type nopPublisher struct{}

func (nopPublisher) PublishGameEvent(GameEvent) {}
