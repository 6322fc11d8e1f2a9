package queue

import (
	"context"
	"errors"
	"sync"
)

const DefaultCapacity = 1000

var ErrClosed = errors.New("队列已关闭")

// BoundedQueue 定长 FIFO 队列，满了以后 Enqueue 阻塞，空了以后 Dequeue 阻塞。
// Close 之后不再接收新元素，已有的元素仍然可以被取走。
// 数据通道本身从不关闭，关闭信号走 closed，所以并发的 Enqueue 不会往已关闭的 channel 写。
type BoundedQueue[T any] struct {
	items     chan T
	closed    chan struct{}
	closeOnce sync.Once
}

func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &BoundedQueue[T]{
		items:  make(chan T, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue 入队，队列满时阻塞直到有空位、队列关闭或者 ctx 结束
func (q *BoundedQueue[T]) Enqueue(ctx context.Context, item T) error {
	// 先看是否已经关闭，避免 select 随机选到有空位的分支
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.items <- item:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue 出队，队列为空时阻塞。队列关闭并且取空之后返回 false
func (q *BoundedQueue[T]) Dequeue(ctx context.Context) (T, bool) {
	select {
	case item := <-q.items:
		return item, true
	case <-q.closed:
		return q.drain()
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func (q *BoundedQueue[T]) drain() (T, bool) {
	select {
	case item := <-q.items:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Close 幂等
func (q *BoundedQueue[T]) Close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
}

func (q *BoundedQueue[T]) Closed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}

func (q *BoundedQueue[T]) Len() int {
	return len(q.items)
}

func (q *BoundedQueue[T]) Cap() int {
	return cap(q.items)
}
