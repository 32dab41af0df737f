// Package queue holds the arrival queue between the directory watcher and
// the transcription worker.
package queue

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded FIFO of pending file paths. Push never blocks;
// Pop removes exactly one item under the lock so concurrent consumers can
// never receive the same path.
type Queue struct {
	mu     sync.Mutex
	items  []string
	notify chan struct{}
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Push appends path to the tail of the queue.
func (q *Queue) Push(path string) {
	q.mu.Lock()
	q.items = append(q.items, path)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop waits up to timeout for an item. The boolean is false when the
// timeout elapses or ctx is done before anything arrives.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (string, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if path, ok := q.tryPop(); ok {
			return path, true
		}

		select {
		case <-q.notify:
		case <-timer.C:
			return q.tryPop()
		case <-ctx.Done():
			return "", false
		}
	}
}

// Len reports the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) tryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	path := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]

	// Re-arm the signal for any other waiter while items remain.
	if len(q.items) > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return path, true
}
