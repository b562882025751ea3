package jobqueue

import (
	"sync/atomic"
	"testing"
)

func TestInlineRunsInOrder(t *testing.T) {
	var order []int
	jobs := make([]func(), 5)
	for i := 0; i < 5; i++ {
		idx := i
		jobs[i] = func() { order = append(order, idx) }
	}
	Inline{}.RunAll(jobs)
	for i, v := range order {
		if v != i {
			t.Fatalf("inline runner reordered jobs: %v", order)
		}
	}
}

func TestPoolRunsAllJobsToCompletion(t *testing.T) {
	pool := NewPool(4, 8)
	defer pool.Shutdown()

	var count int64
	jobs := make([]func(), 100)
	for i := range jobs {
		jobs[i] = func() { atomic.AddInt64(&count, 1) }
	}
	pool.RunAll(jobs)

	if got := atomic.LoadInt64(&count); got != 100 {
		t.Fatalf("expected 100 completed jobs, got %d", got)
	}
}

func TestPoolRunAllIsRepeatable(t *testing.T) {
	pool := NewPool(2, 0)
	defer pool.Shutdown()

	for phase := 0; phase < 3; phase++ {
		var count int64
		jobs := make([]func(), 10)
		for i := range jobs {
			jobs[i] = func() { atomic.AddInt64(&count, 1) }
		}
		pool.RunAll(jobs)
		if count != 10 {
			t.Fatalf("phase %d: expected 10 jobs, got %d", phase, count)
		}
	}
}

func TestPoolSurvivesPanickingJob(t *testing.T) {
	pool := NewPool(2, 0)
	defer pool.Shutdown()

	jobs := []func(){
		func() { panic("boom") },
		func() {},
	}
	pool.RunAll(jobs) // must not deadlock or crash the test
}
