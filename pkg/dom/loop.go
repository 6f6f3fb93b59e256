package dom

import (
	"context"
	"sync"
)

// Loop is the single UI thread of a document. Background goroutines Post
// work to it; Run (or Flush in tests) executes that work in order on the
// calling goroutine.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop builds an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Flush runs queued tasks, including any they enqueue, until the queue is
// empty. It returns how many tasks ran.
func (l *Loop) Flush() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return ran
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		ran++
	}
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Flush()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}
