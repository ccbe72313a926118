// Package loop provides a serial event loop: every posted function runs on one
// goroutine, in the order it was posted.
package loop

import (
	"context"
	"sync"
)

// Loop executes dispatched functions one at a time.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stop    chan struct{}
	stopped sync.Once
}

// New returns an idle loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

// Dispatch enqueues f. It never blocks, so it is safe to call from the loop itself.
func (l *Loop) Dispatch(f func()) {
	l.mu.Lock()
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop makes Run return after the function currently executing, if any.
func (l *Loop) Stop() {
	l.stopped.Do(func() { close(l.stop) })
}

// Run executes queued functions until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			f, ok := l.next()
			if !ok {
				break
			}

			select {
			case <-l.stop:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			f()
		}

		select {
		case <-l.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	f := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return f, true
}
