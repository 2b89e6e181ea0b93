package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wfunc/scoresheet/internal/config"
	"github.com/wfunc/scoresheet/internal/errors"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// RedisCache 基于Redis的对局缓存
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

var _ GameCache = (*RedisCache)(nil)

// NewRedisCache 连接Redis并检查可用性
func NewRedisCache(ctx context.Context, cfg *config.CacheConfig, log *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	c := NewRedisCacheWithClient(client, cfg.TTL, cfg.KeyPrefix, log)
	if err := c.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	c.log.Info("Redis缓存已连接", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return c, nil
}

// NewRedisCacheWithClient 使用已有客户端创建缓存
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, prefix string, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		log:    log,
	}
}

// Ping 检查Redis连接
func (c *RedisCache) Ping(ctx context.Context) error {
	ctxPing, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.client.Ping(ctxPing).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCacheUnavailable, "连接Redis")
	}
	return nil
}

// Client 底层客户端
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Key 对局缓存键
func (c *RedisCache) Key(gameID string) string {
	return c.prefix + "game:" + gameID
}

// Get 读取缓存
func (c *RedisCache) Get(ctx context.Context, gameID string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.Key(gameID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCacheUnavailable, "读取缓存")
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// 内容损坏时删除，下次从数据库重建
		c.log.Warn("缓存内容无法解码", zap.String("game_id", gameID), zap.Error(err))
		_ = c.client.Del(ctx, c.Key(gameID)).Err()
		return false, nil
	}
	return true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, gameID string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCacheEncode, "编码缓存")
	}
	if err := c.client.Set(ctx, c.Key(gameID), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCacheUnavailable, "写入缓存")
	}
	return nil
}

// Invalidate 删除缓存
func (c *RedisCache) Invalidate(ctx context.Context, gameID string) error {
	if err := c.client.Del(ctx, c.Key(gameID)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCacheUnavailable, "删除缓存")
	}
	return nil
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
