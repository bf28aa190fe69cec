package client

import (
	"context"
	"errors"
	"time"

	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/core/ports"
)

// errNoEndpoints is the resolve-stage error for a lookup that succeeded
// but returned no endpoints.
var errNoEndpoints = errors.New("client: resolver returned no endpoints")

// HttpClient is the per-destination connection described in spec.md §2
// (~45% of the system): it owns one Stream, a FIFO of pending Requests, a
// retry counter, an idle-timer, and local statistics, and drives the
// resolve -> connect -> (handshake) -> write -> read -> keep-alive state
// machine. All of its mutable state outside of the stats block is touched
// only on its own SerialContext (spec.md §5); callers reach it exclusively
// through Enqueue, GetStats, QueueSize and Destination.
type HttpClient struct {
	destination domain.Destination
	destKey     string

	ctx           ports.SerialContext
	resolver      ports.Resolver
	streamFactory ports.StreamFactory
	timer         ports.Timer
	timeouts      domain.Timeouts

	userAgent          string
	retryNonIdempotent bool

	onEvent func(domain.ClientEvent)

	stream  ports.Stream
	queue   []domain.Request
	trycnt  int
	st      state
	started time.Time

	stats clientStats
}

// Config bundles the dependencies an HttpClientPool wires into each
// HttpClient it creates.
type Config struct {
	Destination        domain.Destination
	Executor           ports.SerialContext
	Resolver           ports.Resolver
	StreamFactory      ports.StreamFactory
	TimerFactory       ports.TimerFactory
	Timeouts           domain.Timeouts
	UserAgent          string
	RetryNonIdempotent bool
	OnEvent            func(domain.ClientEvent)
}

// New constructs an idle HttpClient bound to a fresh serial sub-context.
// It does not resolve or connect anything until the first Enqueue.
func New(cfg Config) *HttpClient {
	c := &HttpClient{
		destination:        cfg.Destination,
		destKey:            cfg.Destination.Key(),
		ctx:                cfg.Executor,
		resolver:           cfg.Resolver,
		streamFactory:      cfg.StreamFactory,
		timeouts:           cfg.Timeouts,
		userAgent:          cfg.UserAgent,
		retryNonIdempotent: cfg.RetryNonIdempotent,
		onEvent:            cfg.OnEvent,
		st:                 stateIdle,
	}
	c.timer = cfg.TimerFactory.NewTimer(cfg.Executor)
	return c
}

// Enqueue appends req to the client's FIFO. It is safe to call from any
// goroutine: the append itself always happens on the client's serial
// context (spec.md §5, "Enqueue... is forwarded via post... so the queue
// itself never requires a lock"), but the queue-size counter is bumped
// synchronously first so a concurrent QueueSize() read (the pool's
// selection/growth decision in pool.go) observes the pending request
// immediately instead of lagging until the strand drains.
func (c *HttpClient) Enqueue(req domain.Request) {
	c.stats.incQueueSize()
	c.ctx.Post(func() {
		c.queue = append(c.queue, req)
		c.stats.setQueueSize(len(c.queue))
		if len(c.queue) > 1 {
			return
		}
		c.timer.Cancel()
		c.process()
	})
}

// QueueSize returns the client's current backlog length. Safe to call
// concurrently with the client's own serial context; backed by the
// mutex-protected stats block (spec.md §5).
func (c *HttpClient) QueueSize() int {
	return int(c.stats.queueLen())
}

// GetStats returns a snapshot of the client's counters, optionally
// resetting the cumulative fields (spec.md §4.3 step 3). Safe to call
// concurrently with the client's own serial context.
func (c *HttpClient) GetStats(reset bool) domain.ClientStats {
	return c.stats.snapshot(reset)
}

// Destination returns the destination key this client is bound to.
func (c *HttpClient) Destination() string {
	return c.destKey
}

// process decides, for a non-empty queue, whether to resume on the
// existing connection or start a fresh resolve; called both when a queue
// transitions from empty to non-empty and after a request completes with
// more work pending.
func (c *HttpClient) process() {
	if len(c.queue) == 0 {
		return
	}
	if c.trycnt == 0 {
		c.started = time.Now()
	}
	if c.stream != nil && c.stream.Valid() {
		c.send()
		return
	}
	c.stream = c.streamFactory.NewStream(c.destination.TLS)
	c.st = stateResolving
	go func() {
		eps, err := c.resolver.Resolve(context.Background(), c.destination.Host, c.destination.Port)
		c.ctx.Post(func() { c.onResolved(eps, err) })
	}()
}

func (c *HttpClient) onResolved(eps []ports.Endpoint, err error) {
	if err == nil && len(eps) == 0 {
		err = errNoEndpoints
	}
	if err != nil {
		c.fail(err, domain.KindResolve, domain.StageResolve)
		return
	}
	c.st = stateConnecting
	c.stream.ExpiresAfter(c.timeouts.Connect)
	c.stream.Connect(eps, func(err error) {
		c.ctx.Post(func() { c.onConnected(err) })
	})
}

func (c *HttpClient) onConnected(err error) {
	if err != nil {
		c.fail(err, domain.KindConnect, domain.StageConnect)
		return
	}
	if c.destination.TLS == nil {
		c.send()
		return
	}
	c.st = stateHandshaking
	c.stream.Handshake(c.destination.HostnameForSNI(), func(err error) {
		c.ctx.Post(func() { c.onHandshake(err) })
	})
}

func (c *HttpClient) onHandshake(err error) {
	if err != nil {
		c.fail(err, domain.KindHandshake, domain.StageHandshake)
		return
	}
	c.send()
}

// send is the "send" substate action of spec.md §4.2: on the first
// attempt of a request, stamp Host/Connection/User-Agent, then write.
func (c *HttpClient) send() {
	req := c.queue[0]
	if c.trycnt == 0 {
		req.SetHeader("Host", c.destination.Host)
		req.SetHeader("Connection", "keep-alive")
		req.SetHeader("User-Agent", c.userAgent)
	}
	c.st = stateWriting
	c.stream.ExpiresAfter(c.timeouts.Write)
	c.stream.Write(req, func(n int, err error) {
		c.ctx.Post(func() { c.onWritten(n, err) })
	})
}

func (c *HttpClient) onWritten(n int, err error) {
	c.stats.addBytesWritten(n)
	if err != nil {
		c.handleTransportError(err, domain.KindWrite, domain.StageWrite)
		return
	}
	c.st = stateReading
	c.stream.ExpiresAfter(c.timeouts.Read)
	resp := &domain.Response{}
	c.stream.Read(resp, func(n int, err error) {
		c.ctx.Post(func() { c.onRead(resp, n, err) })
	})
}

func (c *HttpClient) onRead(resp *domain.Response, n int, err error) {
	c.stats.addBytesRead(n)
	if err != nil {
		c.handleTransportError(err, domain.KindRead, domain.StageRead)
		return
	}
	c.completeSuccess(resp)
}

// handleTransportError implements the single-retry policy of spec.md §4.2
// and §7: a first write/read failure on an idempotent-eligible method
// resets the stream and restarts from Resolving with the same
// head-of-queue request; any other failure is terminal.
func (c *HttpClient) handleTransportError(err error, kind domain.Kind, stage domain.Stage) {
	req := c.queue[0]
	retryEligible := req.Method().Idempotent() || c.retryNonIdempotent
	if c.trycnt == 0 && retryEligible {
		c.trycnt = 1
		c.stream.Reset()
		c.stream = c.streamFactory.NewStream(c.destination.TLS)
		c.started = time.Now()
		c.st = stateResolving
		go func() {
			eps, rerr := c.resolver.Resolve(context.Background(), c.destination.Host, c.destination.Port)
			c.ctx.Post(func() { c.onResolved(eps, rerr) })
		}()
		return
	}
	c.fail(err, kind, stage)
}

// fail completes the head-of-queue request with a terminal error.
func (c *HttpClient) fail(err error, kind domain.Kind, stage domain.Stage) {
	if c.stream != nil {
		c.stream.Reset()
	}
	req := c.popHead()
	c.trycnt = 0
	elapsed := time.Since(c.started).Seconds()
	c.stats.recordTerminal(false, elapsed)
	c.st = stateIdle

	stageErr := domain.NewStageError(c.destKey, kind, stage, err)
	c.publishLatency(req.ID(), stage, domain.StateFailed, stageErr, elapsed)
	req.Complete(stageErr, stage, nil)

	c.afterCompletion(false, nil)
}

// completeSuccess completes the head-of-queue request on a terminal
// success.
func (c *HttpClient) completeSuccess(resp *domain.Response) {
	req := c.popHead()
	c.trycnt = 0
	elapsed := time.Since(c.started).Seconds()
	c.stats.recordTerminal(true, elapsed)
	c.st = stateIdle

	c.publishLatency(req.ID(), domain.StageComplete, domain.StateSucceeded, nil, elapsed)
	req.Complete(nil, domain.StageComplete, resp)

	c.afterCompletion(true, resp)
}

func (c *HttpClient) popHead() domain.Request {
	req := c.queue[0]
	c.queue = c.queue[1:]
	c.stats.setQueueSize(len(c.queue))
	return req
}

// afterCompletion continues the pipeline if more requests are queued, or
// else arms the idle/keep-alive timer on success (spec.md §4.2
// "Completion").
func (c *HttpClient) afterCompletion(success bool, resp *domain.Response) {
	if len(c.queue) > 0 {
		c.process()
		return
	}
	if !success {
		return
	}
	d := keepAliveTimeout(resp, c.timeouts.Keep)
	c.st = stateKeepAlive
	c.timer.Arm(d, c.onIdleTimer)
}

// onIdleTimer fires when the keep-alive window elapses with no new work;
// per spec.md §4.2 it only closes the connection if the queue is still
// empty and the stream is still open.
func (c *HttpClient) onIdleTimer() {
	c.st = stateIdle
	if len(c.queue) != 0 {
		return
	}
	if c.stream != nil && c.stream.Valid() {
		c.stream.Shutdown()
		c.stream.Reset()
	}
}

func (c *HttpClient) publishLatency(requestID string, stage domain.Stage, st domain.ConnectionState, err error, seconds float64) {
	if c.onEvent == nil {
		return
	}
	c.onEvent(domain.ClientEvent{
		At:            time.Now(),
		Destination:   c.destKey,
		RequestID:     requestID,
		Stage:         stage,
		State:         st,
		Err:           err,
		LatencyMillis: int64(seconds * 1000),
	})
}
