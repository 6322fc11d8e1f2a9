package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitee.com/flycash/msgpulse/internal/domain"
	"github.com/ecodeclub/ekit/syncx"
)

var _ WindowStore = (*LocalWindowStore)(nil)

// LocalWindowStore 进程内的有序时间戳缓冲区，每个 scope 一个
type LocalWindowStore struct {
	buffers syncx.Map[string, *timestampBuffer]
}

func NewLocalWindowStore() *LocalWindowStore {
	return &LocalWindowStore{}
}

type timestampBuffer struct {
	mu  sync.Mutex
	tss []time.Time
	// dead 已经被 Sweep 从 map 里删掉，写入方要换一个新的缓冲区
	dead bool
}

func (b *timestampBuffer) evict(now time.Time) {
	cutoff := now.Add(-Retention)
	idx := sort.Search(len(b.tss), func(i int) bool {
		return b.tss[i].After(cutoff)
	})
	if idx > 0 {
		b.tss = append(b.tss[:0], b.tss[idx:]...)
	}
}

func (s *LocalWindowStore) buffer(scope string) *timestampBuffer {
	buf, _ := s.buffers.LoadOrStore(scope, &timestampBuffer{})
	return buf
}

func (s *LocalWindowStore) Check(_ context.Context, scope string, windows []domain.Window, now time.Time) (*Violation, error) {
	buf, ok := s.buffers.Load(scope)
	if !ok {
		return nil, nil
	}
	buf.mu.Lock()
	defer buf.mu.Unlock()
	buf.evict(now)
	for _, w := range windows {
		from := now.Add(-w.Size)
		idx := sort.Search(len(buf.tss), func(i int) bool {
			return buf.tss[i].After(from)
		})
		count := len(buf.tss) - idx
		if count >= w.Limit {
			return &Violation{Window: w, Count: count, Oldest: buf.tss[idx]}, nil
		}
	}
	return nil, nil
}

func (s *LocalWindowStore) Record(_ context.Context, now time.Time, scopes ...string) error {
	for _, scope := range scopes {
		s.record(scope, now)
	}
	return nil
}

func (s *LocalWindowStore) record(scope string, now time.Time) {
	for {
		buf := s.buffer(scope)
		buf.mu.Lock()
		if buf.dead {
			buf.mu.Unlock()
			continue
		}
		buf.evict(now)
		// 时钟回拨时保持有序
		if n := len(buf.tss); n > 0 && now.Before(buf.tss[n-1]) {
			buf.tss = append(buf.tss, buf.tss[n-1])
		} else {
			buf.tss = append(buf.tss, now)
		}
		buf.mu.Unlock()
		return
	}
}

// Sweep 删除一个小时内没有任何请求的 scope
func (s *LocalWindowStore) Sweep(now time.Time) int {
	removed := 0
	s.buffers.Range(func(scope string, buf *timestampBuffer) bool {
		buf.mu.Lock()
		defer buf.mu.Unlock()
		buf.evict(now)
		// 持有缓冲区的锁删除，并发的 Record 要么先写进来，要么看到 dead 换新的
		if len(buf.tss) == 0 {
			buf.dead = true
			s.buffers.Delete(scope)
			removed++
		}
		return true
	})
	return removed
}
