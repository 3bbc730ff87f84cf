package schedule

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// ErrLoopStopped is returned by [Loop.Do] once the loop has exited.
var ErrLoopStopped = errors.New("schedule: loop stopped")

// Loop owns an executor on a single goroutine. Synchronous calls are
// funneled in through Do; queued tasks run only when no call is waiting.
type Loop struct {
	exec   *Executor
	calls  chan call
	done   chan struct{}
	logger *log.Logger
}

type call struct {
	fn   func()
	done chan struct{}
}

// NewLoop wraps exec. Task errors are logged to logger at error level.
func NewLoop(exec *Executor, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		exec:   exec,
		calls:  make(chan call),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Do runs fn on the loop goroutine and waits for it to return. fn may use
// the executor and anything else owned by the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case l.calls <- c:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Run processes calls and tasks until ctx is cancelled. Queued tasks left
// at that point are not run.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		// Synchronous calls take priority over deferred work.
		select {
		case c := <-l.calls:
			l.invoke(c)
			continue
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if l.exec.Len() > 0 {
			if _, err := l.exec.Step(); err != nil {
				l.logger.Error("task failed", "err", err)
			}
			continue
		}

		select {
		case c := <-l.calls:
			l.invoke(c)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) invoke(c call) {
	defer close(c.done)
	c.fn()
}
