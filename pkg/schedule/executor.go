// Package schedule provides the single-threaded task queue that defers
// render work, and a host loop that runs it between synchronous calls.
//
// [Executor] is a plain FIFO with no locking. Whoever owns it decides when
// tasks run: tests call [Executor.Step] or [Executor.Drain] directly, while
// long-running hosts hand the executor to a [Loop].
package schedule

import (
	"errors"
	"fmt"
)

// Task is one unit of deferred work.
type Task struct {
	Name string
	Run  func() error
}

// Executor is a first-in first-out task queue. It is not safe for
// concurrent use.
type Executor struct {
	queue []Task
	ran   int
}

// NewExecutor returns an empty executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Submit appends a task to the back of the queue. Tasks submitted while
// another task runs are queued behind everything already waiting.
func (e *Executor) Submit(name string, run func() error) {
	e.queue = append(e.queue, Task{Name: name, Run: run})
}

// Len returns the number of queued tasks.
func (e *Executor) Len() int { return len(e.queue) }

// Ran returns how many tasks have been executed.
func (e *Executor) Ran() int { return e.ran }

// Pending returns the names of queued tasks in execution order.
func (e *Executor) Pending() []string {
	names := make([]string, len(e.queue))
	for i, t := range e.queue {
		names[i] = t.Name
	}
	return names
}

// Step runs the task at the front of the queue to completion. It reports
// whether a task ran and returns that task's error.
func (e *Executor) Step() (bool, error) {
	if len(e.queue) == 0 {
		return false, nil
	}
	t := e.queue[0]
	e.queue[0] = Task{}
	e.queue = e.queue[1:]
	e.ran++

	if err := t.Run(); err != nil {
		return true, fmt.Errorf("%s: %w", t.Name, err)
	}
	return true, nil
}

// Drain runs tasks until the queue is empty, including tasks submitted
// along the way. A failing task does not stop the drain; all errors are
// joined.
func (e *Executor) Drain() error {
	var errs []error
	for {
		ran, err := e.Step()
		if !ran {
			return errors.Join(errs...)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
}
