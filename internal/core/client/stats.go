package client

import (
	"sync"

	"github.com/mrenfro/conduit/internal/core/domain"
)

// clientStats is the per-client mutex-protected counters block called out
// in spec.md §5: "the per-client stats block... is mutated under a
// per-client mutex because queue_size() and get_stats() may be read from
// the pool's thread while the client's own context is writing". Every
// field here is read or written only through clientStats's methods.
type clientStats struct {
	mu            sync.Mutex
	state         domain.ConnectionState
	queueSize     uint64
	errorCount    uint64
	totalRequests uint64
	bytesWritten  uint64
	bytesRead     uint64
	totalSeconds  float64
}

func (s *clientStats) setQueueSize(n int) {
	s.mu.Lock()
	s.queueSize = uint64(n)
	s.mu.Unlock()
}

// incQueueSize optimistically bumps the queue-size counter ahead of the
// serial context actually applying the append, so a concurrent reader never
// observes a stale pre-enqueue value (spec.md §5).
func (s *clientStats) incQueueSize() {
	s.mu.Lock()
	s.queueSize++
	s.mu.Unlock()
}

func (s *clientStats) queueLen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueSize
}

func (s *clientStats) addBytesWritten(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.bytesWritten += uint64(n)
	s.mu.Unlock()
}

func (s *clientStats) addBytesRead(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.bytesRead += uint64(n)
	s.mu.Unlock()
}

// recordTerminal updates the cumulative counters on a request's terminal
// outcome: total_requests always increments, error_count increments only
// on failure, state reflects the last outcome irrespective of stage
// (spec.md §7), and seconds accumulates the wall-clock duration of the
// just-finished attempt.
func (s *clientStats) recordTerminal(success bool, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests++
	if success {
		s.state = domain.StateSucceeded
	} else {
		s.state = domain.StateFailed
		s.errorCount++
	}
	s.totalSeconds += seconds
}

// snapshot returns the current counters as a domain.ClientStats and, if
// reset is true, zeroes the cumulative fields afterward (queueSize and
// state are never reset — they reflect live client state, not cumulative
// traffic, per spec.md §4.3 step 3).
func (s *clientStats) snapshot(reset bool) domain.ClientStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.ClientStats{
		State:         s.state,
		QueueSize:     s.queueSize,
		ErrorCount:    s.errorCount,
		TotalRequests: s.totalRequests,
		BytesWritten:  s.bytesWritten,
		BytesRead:     s.bytesRead,
		TotalSeconds:  s.totalSeconds,
	}
	if reset {
		s.errorCount = 0
		s.totalRequests = 0
		s.bytesWritten = 0
		s.bytesRead = 0
		s.totalSeconds = 0
	}
	return out
}
