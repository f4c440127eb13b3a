package utils

import (
	"sync"
)

// WorkerPool runs independent jobs with bounded concurrency. The pipeline
// uses it only to drive whole source pipelines side by side (housing and
// employment own distinct caches and output datasets); nothing inside a
// single pipeline runs concurrently.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// NewWorkerPool creates a WorkerPool with the given concurrency.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job for execution in the pool. A returned error is
// collected and reported from Wait.
func (wp *WorkerPool) Submit(name string, job func() error) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := job(); err != nil {
			wp.mu.Lock()
			wp.errs = append(wp.errs, &jobError{name: name, err: err})
			wp.mu.Unlock()
		}
	}()
}

// Wait blocks until all submitted jobs have completed and returns the
// errors they produced, in completion order.
func (wp *WorkerPool) Wait() []error {
	wp.wg.Wait()

	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.errs
}

type jobError struct {
	name string
	err  error
}

func (e *jobError) Error() string { return e.name + ": " + e.err.Error() }
func (e *jobError) Unwrap() error { return e.err }
