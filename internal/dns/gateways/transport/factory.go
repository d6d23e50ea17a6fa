package transport

import (
	"fmt"
	"time"

	"github.com/leafdns/leafdns/internal/dns/common/clock"
	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/gateways/wire"
)

// Options carries the transport-specific tuning knobs for New.
type Options struct {
	// UDPPayloadSize caps UDP responses. Values below 512 are raised to 512.
	UDPPayloadSize int

	// TCPIdleTimeout closes idle TCP connections. Zero selects the default.
	TCPIdleTimeout time.Duration

	// Clock drives TCP deadlines. Nil selects the system clock.
	Clock clock.Clock
}

// New creates a transport of the given type. The factory keeps the caller
// indifferent to which protocols exist; adding a transport means adding a
// case here.
func New(t Type, addr string, codec wire.Codec, logger log.Logger, opts Options) (ServerTransport, error) {
	switch t {
	case TypeUDP:
		return NewUDPTransport(addr, codec, logger, opts.UDPPayloadSize), nil

	case TypeTCP:
		return NewTCPTransport(addr, codec, logger, opts.Clock, opts.TCPIdleTimeout), nil

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", t)
	}
}

// SupportedTypes returns the transport types New can construct.
func SupportedTypes() []Type {
	return []Type{TypeUDP, TypeTCP}
}

// IsSupported reports whether New can construct the given transport type.
func IsSupported(t Type) bool {
	for _, s := range SupportedTypes() {
		if s == t {
			return true
		}
	}
	return false
}
