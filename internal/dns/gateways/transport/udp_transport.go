package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/domain"
	"github.com/leafdns/leafdns/internal/dns/gateways/wire"
	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

// UDPTransport serves DNS over UDP. It binds one SO_REUSEPORT socket per CPU
// and handles every datagram in its own goroutine; datagrams carry no
// connection state, so a failure affects exactly one request.
type UDPTransport struct {
	addr        string
	codec       wire.Codec
	logger      log.Logger
	payloadSize int

	mu      sync.Mutex
	running bool
	bound   string
	conns   []net.PacketConn
	wg      sync.WaitGroup
}

// NewUDPTransport creates a UDP transport. payloadSize is the response size
// ceiling; values below the RFC 1035 minimum fall back to 512.
func NewUDPTransport(addr string, codec wire.Codec, logger log.Logger, payloadSize int) *UDPTransport {
	if payloadSize < wire.DefaultUDPPayloadSize {
		payloadSize = wire.DefaultUDPPayloadSize
	}
	return &UDPTransport{
		addr:        addr,
		codec:       codec,
		logger:      logger,
		payloadSize: payloadSize,
	}
}

// Start binds the UDP sockets and begins the receive loops.
func (t *UDPTransport) Start(ctx context.Context, handler resolver.Responder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("UDP transport already running")
	}

	// The first bind resolves port 0 to a concrete port; the remaining
	// SO_REUSEPORT sockets must share it.
	lc := reusePortConfig()
	bindAddr := t.addr
	for i := 0; i < listenerCount(); i++ {
		conn, err := lc.ListenPacket(ctx, "udp", bindAddr)
		if err != nil {
			for _, c := range t.conns {
				_ = c.Close()
			}
			t.conns = nil
			return fmt.Errorf("failed to bind UDP socket on %s: %w", bindAddr, err)
		}
		t.conns = append(t.conns, conn)
		bindAddr = conn.LocalAddr().String()
	}
	t.bound = bindAddr
	t.running = true

	for _, conn := range t.conns {
		t.wg.Add(1)
		go t.receiveLoop(ctx, conn, handler)
	}

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
		"listeners": len(t.conns),
	}, "DNS transport started")
	return nil
}

// Stop closes the sockets and waits for in-flight datagram handlers.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	conns := t.conns
	t.conns = nil
	t.mu.Unlock()

	var closeErr error
	for _, c := range conns {
		if err := c.Close(); err != nil {
			closeErr = err
		}
	}
	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
	}, "DNS transport stopped")
	return closeErr
}

// Address returns the bound listen address once started, otherwise the
// configured address.
func (t *UDPTransport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bound != "" {
		return t.bound
	}
	return t.addr
}

// receiveLoop reads datagrams from one socket until shutdown. Transient
// read errors are logged and the loop continues; only socket closure ends it.
func (t *UDPTransport) receiveLoop(ctx context.Context, conn net.PacketConn, handler resolver.Responder) {
	defer t.wg.Done()
	buffer := make([]byte, wire.MaxMessageSize)

	for {
		n, peer, err := conn.ReadFrom(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to read UDP datagram")
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buffer[:n])
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.handleDatagram(ctx, conn, datagram, peer, handler)
		}()
	}
}

// handleDatagram runs the codec→resolver→codec pipeline for one datagram.
func (t *UDPTransport) handleDatagram(ctx context.Context, conn net.PacketConn, data []byte, peer net.Addr, handler resolver.Responder) {
	query, err := t.codec.Decode(data)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client": peer.String(),
			"size":   len(data),
			"error":  err.Error(),
		}, "Failed to decode DNS query")

		// Answer FORMERR when the header survived; drop otherwise rather
		// than guess at a transaction ID.
		reply, ok := formatErrorReply(data)
		if !ok {
			return
		}
		t.send(conn, reply, peer)
		return
	}

	response, ok := handler.HandleRequest(ctx, query, peer)
	if !ok {
		return
	}
	t.send(conn, response, peer)
}

// send encodes a response under the UDP ceiling and writes it to the peer.
func (t *UDPTransport) send(conn net.PacketConn, response domain.Message, peer net.Addr) {
	data, err := t.codec.Encode(response, t.payloadSize)
	if err != nil {
		t.logger.Error(map[string]any{
			"client": peer.String(),
			"id":     response.Header.ID,
			"error":  err.Error(),
		}, "Failed to encode DNS response")
		return
	}
	if _, err := conn.WriteTo(data, peer); err != nil {
		t.logger.Error(map[string]any{
			"client": peer.String(),
			"id":     response.Header.ID,
			"error":  err.Error(),
		}, "Failed to send DNS response")
	}
}

var _ ServerTransport = (*UDPTransport)(nil)
