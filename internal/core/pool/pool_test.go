package pool

import (
	"context"
	"testing"
	"time"

	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/core/ports"
)

// fakeSerialContext runs posted work inline, the same simplification used by
// the client package's own tests: every call here originates from a single
// goroutine at a time, so inline execution is a faithful stand-in for the
// real executor's one-task-at-a-time guarantee.
type fakeSerialContext struct{}

func (fakeSerialContext) Post(fn func()) { fn() }
func (fakeSerialContext) Close()         {}

type fakeExecutor struct{}

func (fakeExecutor) NewSerialContext() ports.SerialContext { return fakeSerialContext{} }
func (fakeExecutor) Close()                                {}

type fakeResolver struct{}

func (fakeResolver) Resolve(context.Context, string, string) ([]ports.Endpoint, error) {
	return []ports.Endpoint{{Network: "tcp", Address: "93.184.216.34:80"}}, nil
}

// fakeStream never completes on its own; every test in this file only cares
// about queue-length-based selection, never about an actual response, so the
// request sits forever in-flight once it reaches the Writing stage.
type fakeStream struct{ valid bool }

func (s *fakeStream) Valid() bool                                       { return s.valid }
func (s *fakeStream) ExpiresAfter(time.Duration)                        {}
func (s *fakeStream) Connect(_ []ports.Endpoint, cb func(err error))     { s.valid = true; cb(nil) }
func (s *fakeStream) Handshake(_ string, cb func(err error))             { cb(nil) }
func (s *fakeStream) Write(_ domain.Request, cb func(n int, err error))  {}
func (s *fakeStream) Read(_ *domain.Response, cb func(n int, err error)) {}
func (s *fakeStream) Shutdown()                                         {}
func (s *fakeStream) Reset()                                            { s.valid = false }

type fakeStreamFactory struct{}

func (fakeStreamFactory) NewStream(*domain.TLSProfile) ports.Stream { return &fakeStream{} }

type fakeTimer struct{}

func (fakeTimer) Arm(time.Duration, func()) {}
func (fakeTimer) Cancel()                    {}

type fakeTimerFactory struct{}

func (fakeTimerFactory) NewTimer(ports.SerialContext) ports.Timer { return fakeTimer{} }

func newTestPool(maxPerHost int) *HttpClientPool {
	return New(Config{
		Executor:      fakeExecutor{},
		Resolver:      fakeResolver{},
		StreamFactory: fakeStreamFactory{},
		TimerFactory:  fakeTimerFactory{},
		Timeouts:      domain.DefaultTimeouts(),
		UserAgent:     "conduit-test",
		MaxPerHost:    maxPerHost,
	})
}

// TestHttpClientPool_MaxPerHostDefaultsToTwo covers spec.md §3's documented
// default when Config.MaxPerHost is left at its zero value.
func TestHttpClientPool_MaxPerHostDefaultsToTwo(t *testing.T) {
	p := New(Config{
		Executor:      fakeExecutor{},
		Resolver:      fakeResolver{},
		StreamFactory: fakeStreamFactory{},
		TimerFactory:  fakeTimerFactory{},
		Timeouts:      domain.DefaultTimeouts(),
	})
	if p.cfg.MaxPerHost != 2 {
		t.Errorf("MaxPerHost default = %d, want 2", p.cfg.MaxPerHost)
	}
}

// TestHttpClientPool_GrowsUntilMaxPerHost verifies spec.md §4.3's selection
// policy: a pool only creates a fresh client once the least-loaded existing
// client's queue already holds more than one request, and stops growing
// once MaxPerHost is reached.
func TestHttpClientPool_GrowsUntilMaxPerHost(t *testing.T) {
	p := newTestPool(2)
	dest := domain.Destination{Host: "example.com", Port: "80"}
	key := dest.Key()

	// First enqueue: no clients exist yet, one is created (queue size 1).
	p.Enqueue(dest, domain.NewGetRequest("/1", nil))
	if got := len(p.clients[key]); got != 1 {
		t.Fatalf("after enqueue 1, client count = %d, want 1", got)
	}

	// Second enqueue: the sole client's queue size is only 1 (not > 1 yet),
	// so it is reused rather than spawning a second client.
	p.Enqueue(dest, domain.NewGetRequest("/2", nil))
	if got := len(p.clients[key]); got != 1 {
		t.Fatalf("after enqueue 2, client count = %d, want still 1", got)
	}

	// Third enqueue: the sole client's queue size is now 2 (> 1) and
	// MaxPerHost=2 hasn't been reached, so a second client is created.
	p.Enqueue(dest, domain.NewGetRequest("/3", nil))
	if got := len(p.clients[key]); got != 2 {
		t.Fatalf("after enqueue 3, client count = %d, want 2", got)
	}

	// Fourth enqueue: MaxPerHost=2 is already reached, so the request is
	// routed to the least-loaded of the two existing clients instead of
	// creating a third.
	p.Enqueue(dest, domain.NewGetRequest("/4", nil))
	if got := len(p.clients[key]); got != 2 {
		t.Fatalf("after enqueue 4, client count = %d, want still 2 (MaxPerHost cap)", got)
	}
}

// TestHttpClientPool_SelectionTieBreakFavoursFirstClient covers spec.md
// §8.10/§9: when every existing client for a destination has an equal queue
// size, the first one (in insertion order) is selected.
func TestHttpClientPool_SelectionTieBreakFavoursFirstClient(t *testing.T) {
	p := newTestPool(2)
	dest := domain.Destination{Host: "example.com", Port: "80"}

	// Enqueues 1-3 leave two clients with queue sizes 2 and 1; enqueue 4
	// goes to the less-loaded second client, so both end at 2.
	for i := 0; i < 4; i++ {
		p.Enqueue(dest, domain.NewGetRequest("/", nil))
	}
	list := p.clients[dest.Key()]
	if len(list) != 2 {
		t.Fatalf("expected two clients with MaxPerHost=2, got %d", len(list))
	}
	first, second := list[0], list[1]
	if first.QueueSize() != 2 || second.QueueSize() != 2 {
		t.Fatalf("expected both clients at queue size 2, got %d and %d", first.QueueSize(), second.QueueSize())
	}

	// Both clients tie at queue size 2, so the next request goes to the
	// first one in insertion order.
	p.Enqueue(dest, domain.NewGetRequest("/5", nil))
	if got := first.QueueSize(); got != 3 {
		t.Errorf("first client queue size = %d, want 3", got)
	}
	if got := second.QueueSize(); got != 2 {
		t.Errorf("second client queue size = %d, want 2", got)
	}
}

// TestHttpClientPool_DestinationsAndDestinationStats covers the read-side
// accessors the stats server depends on.
func TestHttpClientPool_DestinationsAndDestinationStats(t *testing.T) {
	p := newTestPool(2)
	a := domain.Destination{Host: "a.example.com", Port: "80"}
	b := domain.Destination{Host: "b.example.com", Port: "443", TLS: &domain.TLSProfile{Name: "tlsv12-client", ID: 1}}

	p.Enqueue(a, domain.NewGetRequest("/", nil))
	p.Enqueue(b, domain.NewGetRequest("/", nil))

	dests := p.Destinations()
	if len(dests) != 2 {
		t.Fatalf("Destinations() = %v, want 2 entries", dests)
	}

	if stats := p.DestinationStats(a.Key()); len(stats) != 1 {
		t.Errorf("DestinationStats(%q) = %v, want 1 client", a.Key(), stats)
	}
	if stats := p.DestinationStats("unknown:80"); stats != nil {
		t.Errorf("DestinationStats for an unknown key = %v, want nil", stats)
	}
}

// TestHttpClientPool_Stats_AggregatesAcrossClients covers the rollup
// algorithm of spec.md §4.3: host_count reflects distinct destinations,
// active/inactive counts and queue_size sum across every client.
func TestHttpClientPool_Stats_AggregatesAcrossClients(t *testing.T) {
	p := newTestPool(2)
	dest := domain.Destination{Host: "example.com", Port: "80"}

	// Three enqueues against the same destination: the first two share a
	// single client (its queue grows to 2), and the third's queue size
	// check (>1) spins up a second client (spec.md §4.3 selection policy).
	p.Enqueue(dest, domain.NewGetRequest("/1", nil))
	p.Enqueue(dest, domain.NewGetRequest("/2", nil))
	p.Enqueue(dest, domain.NewGetRequest("/3", nil))

	stats := p.Stats()
	if stats.HostCount != 1 {
		t.Errorf("HostCount = %d, want 1", stats.HostCount)
	}
	// Neither fake client has completed a request yet (the fake stream's
	// Write callback is never invoked), so every client still reports
	// ConnectionState's zero value, StateFailed, and shows up as inactive.
	if stats.ActiveCount+stats.InactiveCount != 2 {
		t.Errorf("expected 2 clients total, got active=%d inactive=%d", stats.ActiveCount, stats.InactiveCount)
	}
	if stats.QueueSize == 0 {
		t.Error("expected a non-zero aggregate queue size with in-flight requests")
	}
}
