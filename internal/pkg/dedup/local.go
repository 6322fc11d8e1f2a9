package dedup

import (
	"context"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"github.com/patrickmn/go-cache"
)

var _ Guard = (*LocalGuard)(nil)

// LocalGuard 进程内实现。go-cache 的清理协程按 sweepInterval 扫描，
// 条目在 2 倍窗口之后过期，保证内存有界
type LocalGuard struct {
	cache  *cache.Cache
	window time.Duration
	now    func() time.Time
}

func NewLocalGuard(window, sweepInterval time.Duration) *LocalGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &LocalGuard{
		cache:  cache.New(2*window, sweepInterval),
		window: window,
		now:    time.Now,
	}
}

func (g *LocalGuard) IsDuplicate(_ context.Context, req Request) (bool, error) {
	val, ok := g.cache.Get(Key(req))
	if !ok {
		return false, nil
	}
	recordedAt, ok := val.(time.Time)
	if !ok {
		return false, nil
	}
	return g.now().Sub(recordedAt) < g.window, nil
}

func (g *LocalGuard) Record(_ context.Context, req Request) error {
	g.cache.Set(Key(req), g.now(), cache.DefaultExpiration)
	return nil
}

func (g *LocalGuard) Clear(_ context.Context, req Request) error {
	g.cache.Delete(Key(req))
	return nil
}

// Stats 过期的条目还没被清理掉时也会计入 ExpiredKeys
func (g *LocalGuard) Stats() domain.DedupStats {
	items := g.cache.Items()
	now := g.now()
	active := 0
	for _, item := range items {
		if recordedAt, ok := item.Object.(time.Time); ok && now.Sub(recordedAt) < g.window {
			active++
		}
	}
	return domain.DedupStats{
		TotalKeys:     len(items),
		ActiveKeys:    active,
		ExpiredKeys:   len(items) - active,
		WindowMinutes: g.window.Minutes(),
	}
}
