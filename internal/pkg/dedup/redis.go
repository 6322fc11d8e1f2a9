package dedup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Guard = (*RedisGuard)(nil)

// RedisGuard 多实例共享的实现，value 是记录时间的毫秒时间戳
type RedisGuard struct {
	client    redis.Cmdable
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

func NewRedisGuard(client redis.Cmdable, window time.Duration) *RedisGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisGuard{
		client:    client,
		window:    window,
		keyPrefix: "msgpulse:dedup:",
		now:       time.Now,
	}
}

func (g *RedisGuard) IsDuplicate(ctx context.Context, req Request) (bool, error) {
	val, err := g.client.Get(ctx, g.key(req)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("去重记录格式错误 %q: %w", val, err)
	}
	return g.now().Sub(time.UnixMilli(millis)) < g.window, nil
}

func (g *RedisGuard) Record(ctx context.Context, req Request) error {
	return g.client.Set(ctx, g.key(req), g.now().UnixMilli(), 2*g.window).Err()
}

func (g *RedisGuard) Clear(ctx context.Context, req Request) error {
	return g.client.Del(ctx, g.key(req)).Err()
}

func (g *RedisGuard) key(req Request) string {
	return g.keyPrefix + Key(req)
}
