// Package transport provides the network-facing server loops. Transports
// own the sockets, convert between wire format and domain messages, and
// isolate every failure to the request it belongs to; DNS semantics live
// entirely behind the resolver.Responder interface.
package transport

import (
	"context"
	"encoding/binary"

	"github.com/leafdns/leafdns/internal/dns/domain"
	"github.com/leafdns/leafdns/internal/dns/gateways/wire"
	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

// ServerTransport is implemented by each supported DNS transport.
type ServerTransport interface {
	// Start binds the listening sockets and begins serving requests via the
	// handler. It returns once listeners are bound; serving continues in the
	// background until Stop or context cancellation.
	Start(ctx context.Context, handler resolver.Responder) error

	// Stop shuts the transport down, closing sockets and waiting for
	// in-flight requests.
	Stop() error

	// Address returns the configured listen address.
	Address() string
}

// Type names a DNS transport protocol.
type Type string

const (
	// TypeUDP is standard DNS over UDP (RFC 1035 §4.2.1).
	TypeUDP Type = "udp"

	// TypeTCP is DNS over TCP with 2-octet length framing (RFC 1035 §4.2.2).
	TypeTCP Type = "tcp"
)

// formatErrorReply builds a FORMERR response for a buffer that failed to
// decode. It needs at least the 12 header octets to echo the transaction ID
// and opcode; anything shorter cannot be answered unambiguously and must be
// dropped instead.
func formatErrorReply(data []byte) (domain.Message, bool) {
	if len(data) < wire.HeaderSize {
		return domain.Message{}, false
	}
	flags := binary.BigEndian.Uint16(data[2:4])
	return domain.Message{
		Header: domain.Header{
			ID:               binary.BigEndian.Uint16(data[0:2]),
			Response:         true,
			OpCode:           domain.OpCode(flags >> 11 & 0xF),
			RecursionDesired: flags&(1<<8) != 0,
			RCode:            domain.RCodeFormatError,
		},
	}, true
}
