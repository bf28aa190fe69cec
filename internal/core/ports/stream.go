package ports

import (
	"time"

	"github.com/mrenfro/conduit/internal/core/domain"
)

// Endpoint is one resolved address a Stream may attempt to connect to,
// in the order a Resolver returned them.
type Endpoint struct {
	Network string // "tcp", "tcp4", "tcp6"
	Address string // host:port, already resolved (no further DNS lookup)
}

// Stream is the uniform handle over a plain or TLS-wrapped transport
// described in spec.md §4.1. Callbacks may be invoked on any goroutine,
// including the adapter's own I/O goroutines; HttpClient posts each one onto
// its SerialContext before touching its own state.
type Stream interface {
	// Valid reports whether a socket exists and is reported open.
	Valid() bool

	// ExpiresAfter arms an operation deadline; the next I/O call that does
	// not complete within d fails with a timeout error.
	ExpiresAfter(d time.Duration)

	// Connect iterates endpoints, succeeding on the first successful dial.
	Connect(endpoints []Endpoint, cb func(err error))

	// Handshake performs a TLS handshake using sniHost as the server name.
	// Only meaningful for the Tls variant; the Plain variant calls cb(nil)
	// immediately.
	Handshake(sniHost string, cb func(err error))

	// Write serializes and sends req, reporting the number of bytes
	// written.
	Write(req domain.Request, cb func(n int, err error))

	// Read reads a full HTTP response into resp, reporting the number of
	// bytes read.
	Read(resp *domain.Response, cb func(n int, err error))

	// Shutdown half-closes both directions of the socket, if any.
	Shutdown()

	// Reset drops the stream to its unconnected state and releases the
	// socket, if any.
	Reset()
}

// StreamFactory constructs a fresh Stream for a destination, choosing the
// Plain or Tls variant based on whether tls is non-nil.
type StreamFactory interface {
	NewStream(tls *domain.TLSProfile) Stream
}
