package executor

import (
	"sync"

	"github.com/mrenfro/conduit/internal/core/ports"
)

// PoolExecutor is the ports.Executor implementation backing the whole
// system: a fixed-size goroutine worker pool that services SerialContext
// job channels, grounded on the teacher's health.WorkerPool (job channel +
// worker loop + graceful Stop), generalised here so any number of
// independent serial contexts can share the same worker pool instead of
// each spawning its own goroutine.
type PoolExecutor struct {
	jobCh  chan func()
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New starts a PoolExecutor with workerCount workers pulling from a job
// queue of the given capacity.
func New(workerCount, queueSize int) *PoolExecutor {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	e := &PoolExecutor{
		jobCh:  make(chan func(), queueSize),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *PoolExecutor) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			return
		case job := <-e.jobCh:
			job()
		}
	}
}

// NewSerialContext returns a serialContext backed by this executor's shared
// worker pool: each serialContext keeps its own FIFO of pending work so
// that, even though many serialContexts share the same N workers, no two
// tasks belonging to the same serialContext ever run concurrently.
func (e *PoolExecutor) NewSerialContext() ports.SerialContext {
	return newSerialContext(e.jobCh)
}

// Close stops the workers and waits for any job already running to return.
// Jobs still queued are not run, and later Posts are still queued but never
// executed.
func (e *PoolExecutor) Close() {
	close(e.stopCh)
	e.wg.Wait()
}
