package dispatch

import (
	"sync"
	"time"
)

const DefaultMaxAttempts = 3

// DefaultBackoff 第 1 次重试 5s，第 2 次 30s，第 3 次 5min，之后沿用最后一档
var DefaultBackoff = []time.Duration{5 * time.Second, 30 * time.Second, 5 * time.Minute}

// DelayScheduler 延迟执行，测试里可以替换成同步记录
type DelayScheduler interface {
	Schedule(delay time.Duration, fn func())
	// Stop 取消所有还没触发的任务
	Stop()
}

// RetryPolicy 失败次数到下一次重试的映射
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

func NewRetryPolicy(maxAttempts int, backoff []time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Backoff: backoff}
}

// NextDelay retryCount 是已经失败的次数（含本次），返回 false 说明不再重试
func (p RetryPolicy) NextDelay(retryCount int) (time.Duration, bool) {
	if retryCount <= 0 || retryCount > p.MaxAttempts {
		return 0, false
	}
	idx := min(retryCount-1, len(p.Backoff)-1)
	return p.Backoff[idx], true
}

// TimerScheduler 基于 time.AfterFunc，不会阻塞调用方
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[*time.Timer]struct{})}
}

func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		fn()
	})
	s.timers[t] = struct{}{}
}

func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
}

// Pending 还没触发的任务数
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
