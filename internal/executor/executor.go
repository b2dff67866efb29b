// Package executor runs the client's background work. The event loop
// occupies one worker for the client's lifetime; request submissions come
// and go.
package executor

import (
	"errors"
	"runtime"
	"sync"
)

// Task is one unit of work.
type Task func()

// Executor runs submitted tasks. Implementations need at least two
// concurrent workers: the event loop parks on one until the client closes.
type Executor interface {
	Submit(t Task) error
}

var ErrClosed = errors.New("executor: closed")

// Pool is a fixed-size worker pool over a buffered task queue.
type Pool struct {
	tasks chan Task
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewPool starts a pool of workers goroutines, at least two. A backlog of
// zero picks a default proportional to the worker count.
func NewPool(workers, backlog int) *Pool {
	if workers < 2 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	if backlog <= 0 {
		backlog = 64 * workers
	}
	p := &Pool{
		tasks: make(chan Task, backlog),
		stop:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case t := <-p.tasks:
			runTask(t)
		}
	}
}

// runTask keeps a panicking task from taking the worker down.
func runTask(t Task) {
	defer func() { _ = recover() }()
	t()
}

// Submit enqueues t. It fails once the pool is closed and blocks while
// the backlog is full.
func (p *Pool) Submit(t Task) error {
	select {
	case <-p.stop:
		return ErrClosed
	default:
	}
	select {
	case p.tasks <- t:
		return nil
	case <-p.stop:
		return ErrClosed
	}
}

// Close stops the workers and waits for the running tasks to finish.
// Queued tasks no worker picked up are dropped.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}
