package executor

import "sync"

// serialContext implements ports.SerialContext. It owns a private FIFO of
// pending tasks and a "draining" flag; only one task from this context is
// ever enqueued onto the shared worker pool at a time. When a task
// finishes, the context submits its next queued task (if any) to the pool.
// This is the Go analogue of a Boost.Asio strand layered over a thread
// pool: many serialContexts share N worker goroutines, but each behaves as
// if it had a dedicated single-threaded executor.
type serialContext struct {
	mu       sync.Mutex
	pending  []func()
	draining bool
	closed   bool
	submit   chan<- func()
}

func newSerialContext(submit chan<- func()) *serialContext {
	return &serialContext{submit: submit}
}

func (c *serialContext) Post(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, fn)
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.mu.Unlock()
	c.submit <- c.runNext
}

// runNext executes exactly one pending task, then either re-submits itself
// to drain the next one or clears draining if the queue emptied.
func (c *serialContext) runNext() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.draining = false
		c.mu.Unlock()
		return
	}
	fn := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()

	fn()

	c.mu.Lock()
	if len(c.pending) == 0 {
		c.draining = false
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.submit <- c.runNext
}

func (c *serialContext) Close() {
	c.mu.Lock()
	c.closed = true
	c.pending = nil
	c.mu.Unlock()
}
