package ratelimit

import (
	"context"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
)

// Retention 时间戳最多保留一个小时，超过最大的子窗口就没有意义了
const Retention = time.Hour

type Limiter interface {
	// CheckAndAdmit 先查全局规则，再查 scopeKey 对应的规则，通过时同时记入两个窗口
	CheckAndAdmit(ctx context.Context, scopeKey string) (domain.AdmitResult, error)
	// InvalidateCache 下一次检查时强制重新加载规则
	InvalidateCache()
}

// RuleSource 规则来源，一般是数据库
type RuleSource interface {
	ListRules(ctx context.Context) ([]domain.RateLimitRule, error)
}

// Violation 被触发的子窗口，以及窗口里最早的一次请求
type Violation struct {
	Window domain.Window
	Count  int
	Oldest time.Time
}

// RetryAfterSeconds 最早那次请求滑出窗口还要多久，向上取整，至少 1 秒
func (v Violation) RetryAfterSeconds(now time.Time) int {
	wait := v.Oldest.Add(v.Window.Size).Sub(now)
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// WindowStore 保存每个 scope 的请求时间戳
type WindowStore interface {
	// Check 按顺序检查各个子窗口，第一个超限的窗口作为结果返回，全部通过返回 nil
	Check(ctx context.Context, scope string, windows []domain.Window, now time.Time) (*Violation, error)
	// Record 把 now 记入所有 scope
	Record(ctx context.Context, now time.Time, scopes ...string) error
}
