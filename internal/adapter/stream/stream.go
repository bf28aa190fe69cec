package stream

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/core/ports"
)

// Factory builds Streams bound to a MessageCodec, implementing
// ports.StreamFactory. TLS primitives are the named external collaborator
// of spec.md §1 ("TlsEngine"); crypto/tls is used directly rather than a
// third-party TLS stack because there is no ecosystem replacement for the
// standard library's TLS engine itself (freightliner and nabbar-golib, the
// other pack repos doing outbound TLS, both call crypto/tls directly for
// the same reason).
type Factory struct {
	codec       ports.MessageCodec
	dialTimeout time.Duration
}

// NewFactory returns a Factory that writes/reads messages with codec.
func NewFactory(codec ports.MessageCodec) *Factory {
	return &Factory{codec: codec, dialTimeout: 30 * time.Second}
}

func (f *Factory) NewStream(tlsProfile *domain.TLSProfile) ports.Stream {
	return &netStream{codec: f.codec, tlsProfile: tlsProfile}
}

// netStream is the single Stream implementation handling both the Plain
// and Tls variants of spec.md §4.1: it dials plaintext, and when
// tlsProfile is non-nil, Handshake wraps the raw net.Conn in a *tls.Conn
// before any write/read proceeds.
type netStream struct {
	mu         sync.Mutex
	conn       net.Conn
	tlsProfile *domain.TLSProfile
	codec      ports.MessageCodec
	deadline   time.Duration
}

func (s *netStream) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *netStream) ExpiresAfter(d time.Duration) {
	s.mu.Lock()
	s.deadline = d
	conn := s.conn
	s.mu.Unlock()
	if conn != nil && d > 0 {
		_ = conn.SetDeadline(time.Now().Add(d))
	}
}

func (s *netStream) Connect(endpoints []ports.Endpoint, cb func(err error)) {
	go func() {
		var lastErr error
		dialer := net.Dialer{}
		for _, ep := range endpoints {
			ctx, cancel := context.WithTimeout(context.Background(), s.currentDeadline())
			conn, err := dialer.DialContext(ctx, ep.Network, ep.Address)
			cancel()
			if err == nil {
				s.mu.Lock()
				s.conn = conn
				d := s.deadline
				s.mu.Unlock()
				if d > 0 {
					_ = conn.SetDeadline(time.Now().Add(d))
				}
				cb(nil)
				return
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = errNoEndpoints
		}
		cb(lastErr)
	}()
}

func (s *netStream) currentDeadline() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deadline > 0 {
		return s.deadline
	}
	return 30 * time.Second
}

func (s *netStream) Handshake(sniHost string, cb func(err error)) {
	s.mu.Lock()
	conn := s.conn
	profile := s.tlsProfile
	s.mu.Unlock()

	if profile == nil {
		cb(nil)
		return
	}
	if conn == nil {
		cb(errNotConnected)
		return
	}

	go func() {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: sniHost, MinVersion: tls.VersionTLS12})
		err := tlsConn.Handshake()
		if err != nil {
			cb(err)
			return
		}
		s.mu.Lock()
		s.conn = tlsConn
		s.mu.Unlock()
		cb(nil)
	}()
}

func (s *netStream) Write(req domain.Request, cb func(n int, err error)) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		cb(0, errNotConnected)
		return
	}
	go func() {
		n, err := s.codec.WriteRequest(conn, req)
		cb(n, err)
	}()
}

func (s *netStream) Read(resp *domain.Response, cb func(n int, err error)) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		cb(0, errNotConnected)
		return
	}
	go func() {
		n, err := s.codec.ReadResponse(conn, resp)
		cb(n, err)
	}()
}

func (s *netStream) Shutdown() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := conn.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
	type closeReader interface{ CloseRead() error }
	raw := conn
	if tc, ok := conn.(*tls.Conn); ok {
		raw = tc.NetConn()
	}
	if cr, ok := raw.(closeReader); ok {
		_ = cr.CloseRead()
	}
}

func (s *netStream) Reset() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
