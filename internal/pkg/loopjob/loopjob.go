package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// 在没有分布式任务调度平台的情况下，使用这个来调度，多实例下同一时刻只有一个实例在执行

const (
	defaultTimeout  = time.Second * 3
	DefaultInterval = time.Minute
)

type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	logger  *elog.Component
	biz     func(ctx context.Context) error
	// interval 既是锁的过期时间，也是抢锁失败之后的等待时间
	interval time.Duration
}

func NewInfiniteLoop(
	dclient dlock.Client,
	// 你要执行的业务。注意当 ctx 被取消的时候，就会退出全部循环
	biz func(ctx context.Context) error,
	key string,
	interval time.Duration,
) *InfiniteLoop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &InfiniteLoop{
		dclient:  dclient,
		key:      key,
		logger:   elog.DefaultLogger.With(elog.String("key", key)),
		biz:      biz,
		interval: interval,
	}
}

// Run 当 ctx 被取消的时候，就会退出
func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.interval)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", elog.FieldErr(err))
			if !l.pause(ctx) {
				return
			}
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		// 没有拿到锁，不管是系统错误，还是锁被人持有，都没有关系
		// 暂停一段时间之后继续
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			l.logger.Debug("没有抢到分布式锁", elog.FieldErr(err))
			if !l.pause(ctx) {
				return
			}
			continue
		}

		err = l.bizLoop(ctx, lock)
		// 要么是续约失败，要么是 ctx 本身已经过期了
		if err != nil {
			l.logger.Warn("业务循环中断", elog.FieldErr(err))
		}
		// 要稍微摆脱 ctx 的控制，因为此时 ctx 可能被取消了
		unCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		//nolint:contextcheck // 原始 ctx 可能已被取消，但仍需尝试解锁
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
		}
		err = ctx.Err()
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			l.logger.Info("任务被取消，退出任务循环")
			return
		default:
			if !l.pause(ctx) {
				return
			}
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		err := l.biz(ctx)
		if err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("分布式锁续约失败 %w", err)
		}
	}
}

// pause 返回 false 说明 ctx 已经结束
func (l *InfiniteLoop) pause(ctx context.Context) bool {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
