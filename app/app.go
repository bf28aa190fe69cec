// Package app wires the connection pool's adapters together and drives a
// small demo workload against them, the same "build the dependency graph,
// then Start/Stop it" shape as the teacher's application root.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mrenfro/conduit/internal/adapter/codec"
	"github.com/mrenfro/conduit/internal/adapter/executor"
	"github.com/mrenfro/conduit/internal/adapter/resolver"
	"github.com/mrenfro/conduit/internal/adapter/statserver"
	"github.com/mrenfro/conduit/internal/adapter/stream"
	"github.com/mrenfro/conduit/internal/adapter/timer"
	"github.com/mrenfro/conduit/internal/config"
	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/core/pool"
	"github.com/mrenfro/conduit/internal/core/ports"
	"github.com/mrenfro/conduit/internal/logger"
	"github.com/mrenfro/conduit/internal/util"
	"github.com/mrenfro/conduit/pkg/eventbus"
)

// Application owns the pool, its executor, the stats server, and the demo
// request generator driving traffic through them.
type Application struct {
	cfg    *config.Config
	logger *logger.StyledLogger
	start  time.Time

	exec  ports.Executor
	pool  *pool.HttpClientPool
	stats *statserver.Server
	bus   *eventbus.EventBus[domain.ClientEvent]

	driverCancel context.CancelFunc
	driverDone   chan struct{}
}

// New builds the application's dependency graph but starts nothing.
func New(cfg *config.Config, startTime time.Time, styled *logger.StyledLogger) (*Application, error) {
	exec := executor.New(cfg.Pool.ExecutorWorkers, cfg.Pool.ExecutorQueueSize)
	msgCodec := codec.New()

	bus := eventbus.New[domain.ClientEvent]()

	p := pool.New(pool.Config{
		Executor:      exec,
		Resolver:      resolver.New(),
		StreamFactory: stream.NewFactory(msgCodec),
		TimerFactory:  timer.NewFactory(),
		Timeouts: domain.Timeouts{
			Connect:    cfg.Pool.ConnectTimeout,
			Write:      cfg.Pool.WriteTimeout,
			Read:       cfg.Pool.ReadTimeout,
			Keep:       cfg.Pool.KeepAliveTimeout,
			StatsReset: cfg.Pool.StatsResetInterval,
		},
		UserAgent:          cfg.Pool.UserAgent,
		RetryNonIdempotent: cfg.Pool.RetryNonIdempotent,
		MaxPerHost:         cfg.Pool.MaxPerHost,
		OnEvent:            bus.PublishAsync,
	})

	statsSrv := statserver.New(statserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, p, styled)

	return &Application{
		cfg:    cfg,
		logger: styled,
		start:  startTime,
		exec:   exec,
		pool:   p,
		stats:  statsSrv,
		bus:    bus,
	}, nil
}

// Start launches the stats server, subscribes a log tailer to the event
// bus, and begins the demo request-generation loop.
func (a *Application) Start(ctx context.Context) error {
	a.stats.Start()

	events, unsubscribe := a.bus.Subscribe(ctx)
	go a.tailEvents(events)

	driverCtx, cancel := context.WithCancel(ctx)
	a.driverCancel = cancel
	a.driverDone = make(chan struct{})
	go func() {
		defer close(a.driverDone)
		defer unsubscribe()
		a.runDemoDriver(driverCtx)
	}()

	a.logger.Info("Application started", "stats_addr",
		fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port))
	return nil
}

// Stop cancels the demo driver, waits for it to exit, shuts down the event
// bus (events still queued for async delivery are dropped, not delivered),
// shuts down the stats server, and stops the executor.
func (a *Application) Stop(ctx context.Context) error {
	if a.driverCancel != nil {
		a.driverCancel()
		<-a.driverDone
	}
	a.bus.Shutdown()

	if err := a.stats.Stop(ctx); err != nil {
		return err
	}
	a.exec.Close()
	return nil
}

// tailEvents logs every ClientEvent at an appropriate level, styled by
// state/stage, until the subscription channel closes.
func (a *Application) tailEvents(events <-chan domain.ClientEvent) {
	for ev := range events {
		if ev.State == domain.StateSucceeded {
			a.logger.InfoStateChange("request completed", ev.Destination, ev.State,
				"request_id", ev.RequestID, "latency_ms", ev.LatencyMillis)
			continue
		}
		a.logger.WarnStage("request failed", ev.Destination, ev.Stage,
			"request_id", ev.RequestID, "error", ev.Err)
	}
}

// demoTargets are the destinations the driver round-robins requests across.
var demoTargets = []domain.Destination{
	{Host: "example.com", Port: "80"},
	{Host: "example.com", Port: "443", TLS: &domain.TLSProfile{Name: "tlsv12-client", ID: 1}},
}

// runDemoDriver periodically enqueues GET requests against demoTargets,
// cycling through them round-robin the way original_source/test/test.cpp's
// create_request does, and backing its own pace off with
// util.CalculateExponentialBackoff while requests keep failing (one
// consecutive-failure count shared by all targets), until ctx is cancelled.
func (a *Application) runDemoDriver(ctx context.Context) {
	consecutiveFailures := 0
	interval := 2 * time.Second
	var reqNum atomic.Uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		dest := demoTargets[reqNum.Add(1)%uint64(len(demoTargets))]
		done := make(chan struct{})

		req := domain.NewGetRequest("/", func(err error, stage domain.Stage, resp *domain.Response) {
			if err != nil {
				consecutiveFailures++
			} else {
				consecutiveFailures = 0
			}
			close(done)
		})

		a.pool.Enqueue(dest, req)

		select {
		case <-done:
		case <-ctx.Done():
			return
		}

		if consecutiveFailures > 0 {
			interval = util.CalculateExponentialBackoff(consecutiveFailures, 2*time.Second, 30*time.Second, 0.2)
		} else {
			interval = 2 * time.Second
		}
	}
}

// Pool exposes the underlying HttpClientPool for callers (e.g. tests) that
// want to enqueue requests directly rather than through the demo driver.
func (a *Application) Pool() *pool.HttpClientPool { return a.pool }
