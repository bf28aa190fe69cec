package stream

import (
	"net"
	"testing"
	"time"

	"github.com/mrenfro/conduit/internal/adapter/codec"
	"github.com/mrenfro/conduit/internal/core/domain"
	"github.com/mrenfro/conduit/internal/core/ports"
)

func waitCallback(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire in time")
	}
}

func TestNetStream_ConnectWriteReadPlain(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		n, _ := conn.Read(buf)
		if n == 0 {
			return
		}
		_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"))
	}()

	factory := NewFactory(codec.New())
	s := factory.NewStream(nil)

	connectDone := make(chan struct{})
	var connectErr error
	s.Connect([]ports.Endpoint{{Network: "tcp", Address: ln.Addr().String()}}, func(err error) {
		connectErr = err
		close(connectDone)
	})
	waitCallback(t, connectDone)
	if connectErr != nil {
		t.Fatalf("Connect: %v", connectErr)
	}
	if !s.Valid() {
		t.Fatal("expected stream to be valid after a successful connect")
	}

	req := domain.NewGetRequest("/", nil)
	writeDone := make(chan struct{})
	var writeErr error
	s.Write(req, func(_ int, err error) {
		writeErr = err
		close(writeDone)
	})
	waitCallback(t, writeDone)
	if writeErr != nil {
		t.Fatalf("Write: %v", writeErr)
	}

	resp := &domain.Response{}
	readDone := make(chan struct{})
	var readErr error
	s.Read(resp, func(_ int, err error) {
		readErr = err
		close(readDone)
	})
	waitCallback(t, readDone)
	if readErr != nil {
		t.Fatalf("Read: %v", readErr)
	}
	if resp.StatusCode != 200 || string(resp.Body.Data) != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}

	s.Reset()
	if s.Valid() {
		t.Error("expected stream to be invalid after Reset")
	}
	<-serverDone
}

func TestNetStream_ConnectFallsThroughEndpoints(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	factory := NewFactory(codec.New())
	s := factory.NewStream(nil)

	// The first endpoint is unroutable (reserved TEST-NET-1 address, no
	// listener); Connect should fall through to the second, working one.
	endpoints := []ports.Endpoint{
		{Network: "tcp", Address: "192.0.2.1:1"},
		{Network: "tcp", Address: ln.Addr().String()},
	}

	done := make(chan struct{})
	var connectErr error
	s.ExpiresAfter(500 * time.Millisecond)
	s.Connect(endpoints, func(err error) {
		connectErr = err
		close(done)
	})
	waitCallback(t, done)
	if connectErr != nil {
		t.Fatalf("expected Connect to succeed via the second endpoint, got: %v", connectErr)
	}
}

func TestNetStream_WriteBeforeConnectFails(t *testing.T) {
	factory := NewFactory(codec.New())
	s := factory.NewStream(nil)

	done := make(chan struct{})
	var gotErr error
	s.Write(domain.NewGetRequest("/", nil), func(_ int, err error) {
		gotErr = err
		close(done)
	})
	waitCallback(t, done)
	if gotErr == nil {
		t.Fatal("expected Write on an unconnected stream to fail")
	}
}

func TestNetStream_PlainHandshakeIsNoop(t *testing.T) {
	factory := NewFactory(codec.New())
	s := factory.NewStream(nil)

	done := make(chan struct{})
	var gotErr error
	s.Handshake("example.com", func(err error) {
		gotErr = err
		close(done)
	})
	waitCallback(t, done)
	if gotErr != nil {
		t.Errorf("expected plaintext Handshake to be a no-op success, got %v", gotErr)
	}
}
