// Package jobs runs small CPU jobs with schedule-then-wait semantics.
//
// A caller submits one job and blocks until it has finished before reading
// its result, so dependent steps form a strict chain even when they execute
// on pooled worker goroutines.
package jobs

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Executor runs a job and returns once it has completed.
type Executor interface {
	Do(job func() error) error
}

// Inline runs jobs on the calling goroutine.
type Inline struct{}

// Do runs job immediately.
func (Inline) Do(job func() error) error {
	return job()
}

// ErrClosed is returned by Pool.Do once the pool has been closed.
var ErrClosed = errors.New("jobs: pool closed")

// Pool dispatches jobs to a bounded set of reusable worker goroutines.
// Workers stay alive until Close.
type Pool struct {
	workers worker.DynamicWorkerPool
	nextID  atomic.Int64

	// mu is held shared by Do for the lifetime of a job so Close cannot
	// stop the workers underneath it.
	mu     sync.RWMutex
	closed bool
}

// DefaultQueueSize is the task queue length used when none is configured.
const DefaultQueueSize = 64

// NewPool creates a worker pool executor.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	return &Pool{
		workers: worker.NewDynamicWorkerPool(workers, queueSize, 1*time.Second),
	}
}

// Do submits job to the pool and waits for it to finish.
func (p *Pool) Do(job func() error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	var (
		wg  sync.WaitGroup
		err error
	)
	wg.Add(1)
	p.workers.SubmitTask(worker.Task{
		ID: int(p.nextID.Add(1)),
		Do: func() (any, error) {
			defer wg.Done()
			// The error travels back through err; the pool's own result
			// handling is not drained per frame.
			err = job()
			return nil, nil
		},
	})
	wg.Wait()
	return err
}

// Close stops the worker goroutines. It waits for running jobs and is safe
// to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.workers.Stop()
}

// Counting wraps an Executor and records how many jobs went through it.
type Counting struct {
	Next  Executor
	count atomic.Int64
}

// Do forwards job to Next, or runs it inline when Next is nil.
func (c *Counting) Do(job func() error) error {
	c.count.Add(1)
	if c.Next == nil {
		return job()
	}
	return c.Next.Do(job)
}

// Count returns the number of jobs executed so far.
func (c *Counting) Count() int64 {
	return c.count.Load()
}
