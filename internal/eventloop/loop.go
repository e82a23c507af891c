// Package eventloop runs callbacks one at a time on a single goroutine, the way
// a browser page runs its event handlers, with timers that fire on the loop.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a pending callback scheduled with AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means the callback already ran or was stopped.
	Stop() bool
}

// Loop is a single-threaded callback queue. The queue is unbounded so Post
// never blocks.
type Loop struct {
	clock clockwork.Clock

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
}

// New creates a Loop. A nil clock uses the real clock.
func New(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{clock: clock, wake: make(chan struct{}, 1)}
}

// Clock returns the loop's clock.
func (l *Loop) Clock() clockwork.Clock { return l.clock }

// Post queues fn. It returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits until it has run or ctx is done.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() { fn(); close(done) }) {
		return context.Canceled
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &timer{}
	t.inner = l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			t.fired.Store(true)
			fn()
		})
	})
	return t
}

// Close stops accepting callbacks. Queued callbacks are dropped once Run returns.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes callbacks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		if closed {
			return nil
		}
		for _, fn := range batch {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

type timer struct {
	inner   clockwork.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

func (t *timer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.inner.Stop()
	return !t.fired.Load()
}
