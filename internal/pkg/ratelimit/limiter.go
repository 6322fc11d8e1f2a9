package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"github.com/gotomicro/ego/core/elog"
)

const DefaultRefreshInterval = time.Minute

var _ Limiter = (*SlidingWindowLimiter)(nil)

// SlidingWindowLimiter 全局规则优先，全局拒绝时不再检查路由规则
type SlidingWindowLimiter struct {
	store   WindowStore
	source  RuleSource
	refresh time.Duration

	// 规则缓存，双重检查加锁
	mu          sync.RWMutex
	rules       map[string]domain.RateLimitRule
	loadedAt    time.Time
	invalidated bool

	// 检查和记录必须是一个整体
	admitMu sync.Mutex

	now    func() time.Time
	logger *elog.Component
}

func NewSlidingWindowLimiter(store WindowStore, source RuleSource, refresh time.Duration) *SlidingWindowLimiter {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	return &SlidingWindowLimiter{
		store:   store,
		source:  source,
		refresh: refresh,
		now:     time.Now,
		logger:  elog.DefaultLogger,
	}
}

func (l *SlidingWindowLimiter) CheckAndAdmit(ctx context.Context, scopeKey string) (domain.AdmitResult, error) {
	rules := l.loadRules(ctx)

	l.admitMu.Lock()
	defer l.admitMu.Unlock()

	now := l.now()
	scopes := []string{domain.GlobalScope}
	if scopeKey != "" && scopeKey != domain.GlobalScope {
		scopes = append(scopes, scopeKey)
	}
	for _, scope := range scopes {
		rule, ok := rules[scope]
		if !ok {
			continue
		}
		v, err := l.store.Check(ctx, scope, rule.Windows(), now)
		if err != nil {
			return domain.AdmitResult{}, fmt.Errorf("检查限流窗口 %s 失败: %w", scope, err)
		}
		if v != nil {
			return domain.AdmitResult{
				Allowed:           false,
				Reason:            fmt.Sprintf("%s 每%s最多 %d 次，当前 %d 次", scope, windowName(v.Window), v.Window.Limit, v.Count),
				RetryAfterSeconds: v.RetryAfterSeconds(now),
			}, nil
		}
	}
	if err := l.store.Record(ctx, now, scopes...); err != nil {
		return domain.AdmitResult{}, fmt.Errorf("记录限流窗口失败: %w", err)
	}
	return domain.Admitted(), nil
}

func windowName(w domain.Window) string {
	switch w.Name {
	case "second":
		return "秒"
	case "minute":
		return "分钟"
	case "hour":
		return "小时"
	default:
		return w.Size.String()
	}
}

func (l *SlidingWindowLimiter) InvalidateCache() {
	l.mu.Lock()
	l.invalidated = true
	l.mu.Unlock()
}

func (l *SlidingWindowLimiter) fresh(now time.Time) bool {
	return l.rules != nil && !l.invalidated && now.Sub(l.loadedAt) < l.refresh
}

func (l *SlidingWindowLimiter) loadRules(ctx context.Context) map[string]domain.RateLimitRule {
	now := l.now()
	l.mu.RLock()
	if l.fresh(now) {
		rules := l.rules
		l.mu.RUnlock()
		return rules
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fresh(now) {
		return l.rules
	}
	list, err := l.source.ListRules(ctx)
	if err != nil {
		// 加载失败沿用旧规则，等下一个刷新周期再试
		l.logger.Error("加载限流规则失败", elog.FieldErr(err))
		if l.rules == nil {
			l.rules = map[string]domain.RateLimitRule{}
		}
		l.loadedAt = now
		l.invalidated = false
		return l.rules
	}
	rules := make(map[string]domain.RateLimitRule, len(list))
	for _, r := range list {
		if r.Enabled {
			rules[r.ScopeKey] = r
		}
	}
	l.rules = rules
	l.loadedAt = now
	l.invalidated = false
	if sw, ok := l.store.(interface{ Sweep(time.Time) int }); ok {
		if n := sw.Sweep(now); n > 0 {
			l.logger.Debug("清理空闲限流窗口", elog.Int("count", n))
		}
	}
	return rules
}
