package service

import (
	"time"

	"github.com/wfunc/scoresheet/internal/cache"
	"github.com/wfunc/scoresheet/internal/config"
	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/game"
	"github.com/wfunc/scoresheet/internal/game/chess"
	"github.com/wfunc/scoresheet/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	// InitialFEN 新对局的初始局面
	InitialFEN string
	// AllowOutOfTurn 允许非轮到方走子
	AllowOutOfTurn bool
	// Cache 对局缓存，为nil时不缓存
	Cache cache.GameCache
	// Clock 时间来源，为nil时使用 time.Now
	Clock Clock
	// Events 对局事件发布者，为nil时不发布
	Events EventPublisher
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		InitialFEN: chess.StartFEN,
		Cache:      cache.NopCache{},
		Clock:      time.Now,
		Events:     nopPublisher{},
	}
}

// ConfigFrom 从应用配置生成服务配置
func ConfigFrom(cfg *config.Config, gameCache cache.GameCache) *Config {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.Chess.InitialFEN != "" {
			c.InitialFEN = cfg.Chess.InitialFEN
		}
		c.AllowOutOfTurn = cfg.Chess.AllowOutOfTurn
	}
	if gameCache != nil {
		c.Cache = gameCache
	}
	return c
}

// Services 服务集合
type Services struct {
	Game GameService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *Config, log *zap.Logger) (*Services, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.InitialFEN == "" {
		cfg.InitialFEN = chess.StartFEN
	}
	if err := chess.ValidateFEN(cfg.InitialFEN); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidPosition, "初始局面")
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NopCache{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Events == nil {
		cfg.Events = nopPublisher{}
	}

	// 初始化仓储
	repos := repository.NewManager(db)

	// 初始化棋规判定器
	oracle := chess.NewOracle(chess.WithOutOfTurn(cfg.AllowOutOfTurn))

	gameService := NewGameService(
		repos,
		game.NewEditor(oracle),
		cfg,
		log.Named("game"),
	)

	return &Services{
		Game: gameService,
	}, nil
}
