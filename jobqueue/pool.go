// Package jobqueue provides the thread-pool abstraction spec §5/§9
// describes: "a thread-pool abstraction provides either parallel or
// single-thread execution; both must honour the same ordering contract."
// Grounded on the teacher's engine/systems/job.go JobSystem.
package jobqueue

import (
	"sync"

	"github.com/renderframe/corepipeline/core"
)

// Runner executes a batch of independent jobs and waits for all of them to
// finish before returning. The job pipeline driver is agnostic to which
// implementation is wired in (spec §5: "Implementations may degrade to
// single-thread execution and must still honour the phase ordering").
type Runner interface {
	// RunAll executes every job in jobs. Implementations must run them to
	// completion before returning, preserving per-job index order only to
	// the extent an Inline runner naturally does; a Pool runner makes no
	// ordering guarantee across jobs, matching spec §5 ("no ordering
	// between features is guaranteed" within a phase).
	RunAll(jobs []func())
}

// Inline is the single-threaded default: every job runs synchronously, in
// order, on the calling goroutine.
type Inline struct{}

func (Inline) RunAll(jobs []func()) {
	for _, job := range jobs {
		job()
	}
}

// Pool is a fixed worker-goroutine pool reading a buffered job channel,
// grounded directly on the teacher's JobSystem (NewJobSystem, Submit,
// Shutdown). Unlike the teacher's JobSystem, RunAll is a join point: it
// blocks until every submitted job has completed, matching the phase
// driver's "explicit join points" contract (spec §5).
type Pool struct {
	numWorkers int
	jobCh      chan func()
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewPool starts numWorkers worker goroutines reading from a channel
// buffered to channelSize. Panics if numWorkers <= 0, mirroring the
// teacher's ErrNoWorkers guard.
func NewPool(numWorkers, channelSize int) *Pool {
	if numWorkers <= 0 {
		panic("jobqueue: pool requires at least one worker")
	}
	if channelSize < 0 {
		channelSize = 0
	}
	p := &Pool{
		numWorkers: numWorkers,
		jobCh:      make(chan func(), channelSize),
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobCh {
		job()
	}
}

// RunAll submits every job to the pool and blocks until all have run,
// using a dedicated per-call WaitGroup so RunAll can be called repeatedly
// against the same long-lived Pool (once per phase, per spec §5).
func (p *Pool) RunAll(jobs []func()) {
	var batch sync.WaitGroup
	batch.Add(len(jobs))
	for _, job := range jobs {
		j := job
		p.jobCh <- func() {
			defer batch.Done()
			defer func() {
				if r := recover(); r != nil {
					core.LogError("jobqueue: job panicked: %v", r)
				}
			}()
			j()
		}
	}
	batch.Wait()
}

// Shutdown closes the job channel and waits for every worker goroutine to
// drain, mirroring the teacher's JobSystem.Shutdown. Must not be called
// concurrently with RunAll.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		close(p.jobCh)
	})
	p.wg.Wait()
}
