package ratelimit

import (
	"context"

	"github.com/gotomicro/ego/core/elog"
	"github.com/redis/go-redis/v9"
)

const DefaultInvalidateChannel = "msgpulse:ratelimit:invalidate"

// InvalidationListener 订阅规则变更通知，收到后让限流器丢弃规则缓存
type InvalidationListener struct {
	rdb     *redis.Client
	channel string
	limiter Limiter
	logger  *elog.Component
}

func NewInvalidationListener(rdb *redis.Client, channel string, limiter Limiter) *InvalidationListener {
	if channel == "" {
		channel = DefaultInvalidateChannel
	}
	return &InvalidationListener{
		rdb:     rdb,
		channel: channel,
		limiter: limiter,
		logger:  elog.DefaultLogger,
	}
}

// Start 阻塞到 ctx 结束
func (l *InvalidationListener) Start(ctx context.Context) {
	pubsub := l.rdb.Subscribe(ctx, l.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		l.logger.Error("订阅限流规则变更失败", elog.String("channel", l.channel), elog.FieldErr(err))
		return
	}
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			l.logger.Info("限流规则变更，刷新缓存", elog.String("scope", msg.Payload))
			l.limiter.InvalidateCache()
		}
	}
}

// Publish 规则写入之后调用
func Publish(ctx context.Context, rdb redis.Cmdable, channel, scopeKey string) error {
	if channel == "" {
		channel = DefaultInvalidateChannel
	}
	return rdb.Publish(ctx, channel, scopeKey).Err()
}
