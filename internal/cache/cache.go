package cache

import (
	"context"

	"github.com/wfunc/scoresheet/internal/config"
	"go.uber.org/zap"
)

// GameCache 对局详情缓存
type GameCache interface {
	// Get 读取缓存并解码到dst，未命中时返回false
	Get(ctx context.Context, gameID string, dst interface{}) (bool, error)
	// Set 写入缓存
	Set(ctx context.Context, gameID string, value interface{}) error
	// Invalidate 删除缓存
	Invalidate(ctx context.Context, gameID string) error
	// Close 释放连接
	Close() error
}

// New 根据配置创建缓存，未启用时返回空实现
func New(ctx context.Context, cfg *config.CacheConfig, log *zap.Logger) (GameCache, error) {
	if cfg == nil || !cfg.Enabled {
		return NopCache{}, nil
	}
	return NewRedisCache(ctx, cfg, log)
}

// NopCache 不缓存任何内容
type NopCache struct{}

var _ GameCache = NopCache{}

func (NopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, interface{}) error         { return nil }
func (NopCache) Invalidate(context.Context, string) error               { return nil }
func (NopCache) Close() error                                           { return nil }
