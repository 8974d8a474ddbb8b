package broadcast

import (
	"context"
	"sync"
)

// Deliver schedules a delivery task. Hosts with a UI thread pass a function
// that posts the task onto it.
type Deliver func(task func())

// Go runs each task on its own goroutine.
func Go(task func()) { go task() }

// Inline runs each task on the calling goroutine.
func Inline(task func()) { task() }

// Loop runs posted tasks one at a time on the goroutine that calls Run.
// Post never blocks; the queue is unbounded.
type Loop struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

func (l *Loop) Post(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) Deliver() Deliver { return l.Post }

// Run executes tasks until ctx is done. Tasks already queued by then, and any
// they post, still run before Run returns, so Run may be called again later.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.runQueued()
		select {
		case <-l.wake:
		case <-ctx.Done():
			l.runQueued()
			return ctx.Err()
		}
	}
}

func (l *Loop) runQueued() {
	for tasks := l.take(); len(tasks) > 0; tasks = l.take() {
		for _, task := range tasks {
			task()
		}
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks := l.tasks
	l.tasks = nil
	return tasks
}
