package pool

import (
	"sync"
	"time"

	"github.com/mrenfro/conduit/internal/core/client"
	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/core/ports"
	"github.com/mrenfro/conduit/internal/core/stats"
)

// Config bundles the adapters and settings an HttpClientPool needs to
// build HttpClients on demand (spec.md §3, "HttpClientPool").
type Config struct {
	Executor           ports.Executor
	Resolver           ports.Resolver
	StreamFactory      ports.StreamFactory
	TimerFactory       ports.TimerFactory
	Timeouts           domain.Timeouts
	UserAgent          string
	RetryNonIdempotent bool
	MaxPerHost         int
	OnEvent            func(domain.ClientEvent)
}

// HttpClientPool maps a destination key to a bounded list of HttpClients,
// selecting or creating clients per enqueue and aggregating their
// statistics (spec.md §2, ~25% of the system). It is a plain struct owned
// by its caller — the source's shared-ownership self-type inheritance
// (spec.md §9, "Self-type inheritance") has no Go analogue and is not
// reproduced.
type HttpClientPool struct {
	mu      sync.Mutex
	clients map[string][]*client.HttpClient

	cfg         Config
	statsTime   time.Time
	latencies   stats.PercentileTracker
	userOnEvent func(domain.ClientEvent)
}

// New returns an empty pool. MaxPerHost defaults to 2 if cfg.MaxPerHost is
// not positive, matching spec.md §3.
func New(cfg Config) *HttpClientPool {
	if cfg.MaxPerHost <= 0 {
		cfg.MaxPerHost = 2
	}
	p := &HttpClientPool{
		clients:     make(map[string][]*client.HttpClient),
		cfg:         cfg,
		statsTime:   time.Now(),
		latencies:   stats.NewReservoirSampler(200),
		userOnEvent: cfg.OnEvent,
	}
	p.cfg.OnEvent = p.onClientEvent
	return p
}

// onClientEvent intercepts every client event to feed the pool-wide
// latency percentile tracker before forwarding to the caller's own
// subscriber (the event bus publisher wired in app/app.go).
func (p *HttpClientPool) onClientEvent(ev domain.ClientEvent) {
	p.latencies.Add(ev.LatencyMillis)
	if p.userOnEvent != nil {
		p.userOnEvent(ev)
	}
}

// LatencyPercentiles returns the pool-wide p50/p95/p99 request latency in
// milliseconds, sampled via reservoir sampling across all destinations.
func (p *HttpClientPool) LatencyPercentiles() (p50, p95, p99 int64) {
	return p.latencies.GetPercentiles()
}

// Enqueue routes req to a client for dest, creating a client (and
// potentially a second one) as needed, per the selection policy of
// spec.md §4.3.
func (p *HttpClientPool) Enqueue(dest domain.Destination, req domain.Request) {
	key := dest.Key()

	p.mu.Lock()
	list := p.clients[key]
	var target *client.HttpClient

	if len(list) == 0 {
		target = p.newClient(dest)
		list = append(list, target)
		p.clients[key] = list
	} else {
		target = leastLoaded(list)
		if target.QueueSize() > 1 && len(list) < p.cfg.MaxPerHost {
			fresh := p.newClient(dest)
			list = append(list, fresh)
			p.clients[key] = list
			target = fresh
		}
	}
	p.mu.Unlock()

	target.Enqueue(req)
}

// newClient builds an HttpClient bound to a new serial sub-context of the
// pool's root executor. Must be called with p.mu held.
func (p *HttpClientPool) newClient(dest domain.Destination) *client.HttpClient {
	return client.New(client.Config{
		Destination:        dest,
		Executor:           p.cfg.Executor.NewSerialContext(),
		Resolver:           p.cfg.Resolver,
		StreamFactory:      p.cfg.StreamFactory,
		TimerFactory:       p.cfg.TimerFactory,
		Timeouts:           p.cfg.Timeouts,
		UserAgent:          p.cfg.UserAgent,
		RetryNonIdempotent: p.cfg.RetryNonIdempotent,
		OnEvent:            p.cfg.OnEvent,
	})
}

// leastLoaded returns the client with the smallest queue size, ties going
// to the first client in insertion order (spec.md §4.3, §8.10, §9 "
// Selection tie-break").
func leastLoaded(list []*client.HttpClient) *client.HttpClient {
	best := list[0]
	bestSize := best.QueueSize()
	for _, c := range list[1:] {
		if sz := c.QueueSize(); sz < bestSize {
			best = c
			bestSize = sz
		}
	}
	return best
}

// Stats aggregates a point-in-time snapshot across every known client,
// implementing the rollup algorithm of spec.md §4.3.
func (p *HttpClientPool) Stats() domain.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	reset := time.Since(p.statsTime) > p.cfg.Timeouts.StatsReset
	if reset {
		p.statsTime = time.Now()
	}

	var out domain.PoolStats
	out.HostCount = uint64(len(p.clients))

	for _, list := range p.clients {
		for _, c := range list {
			s := c.GetStats(reset)
			if s.State == domain.StateSucceeded {
				out.ActiveCount++
			} else {
				out.InactiveCount++
			}
			out.QueueSize += s.QueueSize
			out.BytesWritten += s.BytesWritten
			out.BytesRead += s.BytesRead
			out.TotalSeconds += s.TotalSeconds
		}
	}

	if out.TotalSeconds > 0 {
		out.Bandwidth = float64(out.BytesRead+out.BytesWritten) / out.TotalSeconds
	}
	return out
}

// DestinationStats returns the per-client stats for every HttpClient bound
// to key, or nil if the key is unknown. Used by the stats server's
// per-destination endpoint.
func (p *HttpClientPool) DestinationStats(key string) []domain.ClientStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	list, ok := p.clients[key]
	if !ok {
		return nil
	}
	out := make([]domain.ClientStats, 0, len(list))
	for _, c := range list {
		out = append(out, c.GetStats(false))
	}
	return out
}

// Destinations lists every known destination key, for the stats server's
// index.
func (p *HttpClientPool) Destinations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.clients))
	for k := range p.clients {
		out = append(out, k)
	}
	return out
}
