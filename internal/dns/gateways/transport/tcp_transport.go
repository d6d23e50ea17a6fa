package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/leafdns/leafdns/internal/dns/common/clock"
	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/domain"
	"github.com/leafdns/leafdns/internal/dns/gateways/wire"
	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

// DefaultTCPIdleTimeout closes connections whose peer stops sending.
const DefaultTCPIdleTimeout = 30 * time.Second

// TCPTransport serves DNS over TCP per RFC 1035 §4.2.2: every message is
// prefixed with a 2-octet big-endian length, and a connection may carry any
// number of queries until the peer closes or the idle timeout elapses.
// A message that fails to decode closes its connection; the framing cannot
// be trusted past a malformed payload.
type TCPTransport struct {
	addr        string
	codec       wire.Codec
	logger      log.Logger
	clock       clock.Clock
	idleTimeout time.Duration

	mu        sync.Mutex
	running   bool
	bound     string
	listeners []net.Listener
	wg        sync.WaitGroup
}

// NewTCPTransport creates a TCP transport. A zero idleTimeout selects
// DefaultTCPIdleTimeout; a nil clk selects the system clock.
func NewTCPTransport(addr string, codec wire.Codec, logger log.Logger, clk clock.Clock, idleTimeout time.Duration) *TCPTransport {
	if idleTimeout <= 0 {
		idleTimeout = DefaultTCPIdleTimeout
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TCPTransport{
		addr:        addr,
		codec:       codec,
		logger:      logger,
		clock:       clk,
		idleTimeout: idleTimeout,
	}
}

// Start binds the TCP listeners and begins accepting connections.
func (t *TCPTransport) Start(ctx context.Context, handler resolver.Responder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("TCP transport already running")
	}

	// The first bind resolves port 0 to a concrete port; the remaining
	// SO_REUSEPORT sockets must share it.
	lc := reusePortConfig()
	bindAddr := t.addr
	for i := 0; i < listenerCount(); i++ {
		ln, err := lc.Listen(ctx, "tcp", bindAddr)
		if err != nil {
			for _, l := range t.listeners {
				_ = l.Close()
			}
			t.listeners = nil
			return fmt.Errorf("failed to bind TCP socket on %s: %w", bindAddr, err)
		}
		t.listeners = append(t.listeners, ln)
		bindAddr = ln.Addr().String()
	}
	t.bound = bindAddr
	t.running = true

	for _, ln := range t.listeners {
		t.wg.Add(1)
		go t.acceptLoop(ctx, ln, handler)
	}

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
		"listeners": len(t.listeners),
	}, "DNS transport started")
	return nil
}

// Stop closes the listeners and waits for open connections to finish.
func (t *TCPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	listeners := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	var closeErr error
	for _, ln := range listeners {
		if err := ln.Close(); err != nil {
			closeErr = err
		}
	}
	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
	}, "DNS transport stopped")
	return closeErr
}

// Address returns the bound listen address once started, otherwise the
// configured address.
func (t *TCPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bound != "" {
		return t.bound
	}
	return t.addr
}

// acceptLoop accepts connections on one listener until shutdown.
func (t *TCPTransport) acceptLoop(ctx context.Context, ln net.Listener, handler resolver.Responder) {
	defer t.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to accept TCP connection")
			continue
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.handleConnection(ctx, conn, handler)
		}()
	}
}

// handleConnection serves length-prefixed queries on one connection until
// the peer closes, the idle timeout elapses, or a message fails to decode.
func (t *TCPTransport) handleConnection(ctx context.Context, conn net.Conn, handler resolver.Responder) {
	defer conn.Close()

	// Unblock the read when the server shuts down mid-connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := t.readMessage(conn)
		if err != nil {
			// EOF and timeouts are the normal ends of a connection.
			return
		}
		if len(msg) == 0 {
			continue
		}

		query, err := t.codec.Decode(msg)
		if err != nil {
			t.logger.Warn(map[string]any{
				"client": conn.RemoteAddr().String(),
				"size":   len(msg),
				"error":  err.Error(),
			}, "Closing TCP connection on malformed query")
			return
		}

		response, ok := handler.HandleRequest(ctx, query, conn.RemoteAddr())
		if !ok {
			continue
		}
		if err := t.writeMessage(conn, response); err != nil {
			t.logger.Warn(map[string]any{
				"client": conn.RemoteAddr().String(),
				"error":  err.Error(),
			}, "Failed to write TCP response")
			return
		}
	}
}

// readMessage reads one length-prefixed message, refreshing the idle
// deadline first.
func (t *TCPTransport) readMessage(conn net.Conn) ([]byte, error) {
	_ = conn.SetReadDeadline(t.clock.Now().Add(t.idleTimeout))

	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	msgLen := int(binary.BigEndian.Uint16(lenBuf[:]))
	if msgLen == 0 {
		return nil, nil
	}

	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(conn, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// writeMessage encodes a response without a size ceiling and writes it with
// its length prefix.
func (t *TCPTransport) writeMessage(conn net.Conn, response domain.Message) error {
	data, err := t.codec.Encode(response, 0)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(t.clock.Now().Add(t.idleTimeout))
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	bufs := net.Buffers{lenBuf[:], data}
	_, err = bufs.WriteTo(conn)
	return err
}

var _ ServerTransport = (*TCPTransport)(nil)
