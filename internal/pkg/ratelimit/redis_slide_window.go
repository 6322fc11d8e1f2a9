package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed lua/slide_window.lua
	slidingWindowLua string

	slidingWindowScript = redis.NewScript(slidingWindowLua)

	_ WindowStore = (*RedisWindowStore)(nil)
)

// RedisWindowStore 每个 scope 一个 ZSET，多个实例共享计数。
// 检查和记录是两次调用，多实例并发时可能略微超发
type RedisWindowStore struct {
	cmd       redis.Cmdable
	keyPrefix string
}

// NewRedisWindowStore 创建一个基于Redis的滑动窗口存储
func NewRedisWindowStore(cmd redis.Cmdable) *RedisWindowStore {
	return &RedisWindowStore{
		cmd:       cmd,
		keyPrefix: "msgpulse:ratelimit:",
	}
}

func (r *RedisWindowStore) Check(ctx context.Context, scope string, windows []domain.Window, now time.Time) (*Violation, error) {
	if len(windows) == 0 {
		return nil, nil
	}
	args := make([]any, 0, 2+2*len(windows))
	args = append(args, now.UnixMilli(), Retention.Milliseconds())
	for _, w := range windows {
		args = append(args, w.Size.Milliseconds(), w.Limit)
	}
	res, err := slidingWindowScript.Run(ctx, r.cmd, []string{r.key(scope)}, args...).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("执行滑动窗口脚本失败: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("滑动窗口脚本返回值不正确: %v", res)
	}
	if res[0] < 0 {
		return nil, nil
	}
	return &Violation{
		Window: windows[res[0]],
		Count:  int(res[1]),
		Oldest: time.UnixMilli(res[2]),
	}, nil
}

func (r *RedisWindowStore) Record(ctx context.Context, now time.Time, scopes ...string) error {
	pipe := r.cmd.TxPipeline()
	for _, scope := range scopes {
		key := r.key(scope)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: uuid.Must(uuid.NewV4()).String(),
		})
		pipe.PExpire(ctx, key, Retention)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// key 获取 scope 对应的Redis键
func (r *RedisWindowStore) key(scope string) string {
	return r.keyPrefix + scope
}
