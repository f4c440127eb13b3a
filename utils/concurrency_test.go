package utils

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(2)

	var count int64
	for i := 0; i < 10; i++ {
		pool.Submit("job", func() error {
			atomic.AddInt64(&count, 1)
			return nil
		})
	}

	if errs := pool.Wait(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if count != 10 {
		t.Errorf("expected 10 jobs to run, got %d", count)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	pool := NewWorkerPool(2)
	boom := errors.New("boom")

	pool.Submit("good", func() error { return nil })
	pool.Submit("bad", func() error { return boom })

	errs := pool.Wait()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("expected wrapped boom error, got %v", errs[0])
	}
	if errs[0].Error() != "bad: boom" {
		t.Errorf("expected job name in error, got %q", errs[0].Error())
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(1)

	var running, maxRunning int64
	for i := 0; i < 5; i++ {
		pool.Submit("job", func() error {
			cur := atomic.AddInt64(&running, 1)
			for {
				prev := atomic.LoadInt64(&maxRunning)
				if cur <= prev || atomic.CompareAndSwapInt64(&maxRunning, prev, cur) {
					break
				}
			}
			atomic.AddInt64(&running, -1)
			return nil
		})
	}
	pool.Wait()

	if maxRunning > 1 {
		t.Errorf("expected at most 1 concurrent job, saw %d", maxRunning)
	}
}
