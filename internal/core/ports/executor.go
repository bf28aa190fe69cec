package ports

// Executor is the root asynchronous runtime the core is built against
// (spec.md §1, "the underlying event loop / thread-pool executor"). The
// core never touches goroutines or channels directly outside of the
// adapter layer; it only ever asks an Executor for a SerialContext.
type Executor interface {
	// NewSerialContext returns a fresh serial execution context derived
	// from this executor. Each HttpClient gets exactly one, for its whole
	// lifetime, so that none of its own callbacks ever run concurrently
	// with each other (spec.md §5).
	NewSerialContext() SerialContext

	// Close stops the executor and releases its workers. Outstanding
	// SerialContexts become unusable after Close returns.
	Close()
}

// SerialContext guarantees that work submitted through Post runs one task
// at a time, in submission order, even though the owning Executor may be
// running many SerialContexts in parallel on its worker pool. It is the Go
// analogue of the source's Boost.Asio "strand".
type SerialContext interface {
	// Post schedules fn to run on this context. Post is safe to call from
	// any goroutine, including from within a task already running on this
	// context (in which case fn runs after the current task returns).
	Post(fn func())

	// Close releases any resources held by the context. It does not wait
	// for already-posted work to drain.
	Close()
}
