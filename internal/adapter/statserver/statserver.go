// Package statserver exposes the pool's aggregated and per-destination
// statistics over plain HTTP, the read-only observability surface named in
// spec.md §6.
package statserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/logger"
	"github.com/mrenfro/conduit/internal/router"
)

// Pool is the subset of HttpClientPool the stats server reads from.
type Pool interface {
	Stats() domain.PoolStats
	DestinationStats(key string) []domain.ClientStats
	Destinations() []string
	LatencyPercentiles() (p50, p95, p99 int64)
}

// Server is the stats/health HTTP server. It never writes to the pool -
// every handler is a read of a point-in-time snapshot.
type Server struct {
	pool            Pool
	logger          *logger.StyledLogger
	http            *http.Server
	errCh           chan error
	shutdownTimeout time.Duration
}

// Config bundles the listen address and timeouts for the stats server.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// New builds a stats server bound to pool, not yet listening.
func New(cfg Config, pool Pool, styled *logger.StyledLogger) *Server {
	s := &Server{
		pool:   pool,
		logger: styled,
		errCh:  make(chan error, 1),
	}

	registry := router.NewRouteRegistry(*styled)
	registry.Register("/health", s.healthHandler, "Liveness check")
	registry.Register("/stats", s.poolStatsHandler, "Aggregated pool statistics")
	registry.Register("/stats/", s.destinationStatsHandler, "Per-destination statistics")
	registry.Register("/stats/latency", s.latencyHandler, "p50/p95/p99 request latency")

	mux := http.NewServeMux()
	registry.WireUp(mux)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	s.shutdownTimeout = cfg.ShutdownTimeout

	return s
}

func (s *Server) Start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("stats server error", "error", err)
			s.errCh <- err
		}
	}()
	s.logger.InfoWithDestination("Stats server listening", s.http.Addr)
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stats server shutdown: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) poolStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Stats())
}

func (s *Server) latencyHandler(w http.ResponseWriter, r *http.Request) {
	p50, p95, p99 := s.pool.LatencyPercentiles()
	writeJSON(w, http.StatusOK, map[string]int64{"p50_ms": p50, "p95_ms": p95, "p99_ms": p99})
}

func (s *Server) destinationStatsHandler(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/stats/")
	if key == "" {
		writeJSON(w, http.StatusOK, s.pool.Destinations())
		return
	}

	clients := s.pool.DestinationStats(key)
	if clients == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown destination: " + key})
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
