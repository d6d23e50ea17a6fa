package resolver

import (
	"context"
	"net"

	"github.com/leafdns/leafdns/internal/dns/domain"
)

// ZoneStore provides read-only access to the authoritative zone table.
type ZoneStore interface {
	// Lookup returns the records for the exact (name, type) pair.
	Lookup(name string, t domain.RRType) []domain.ResourceRecord

	// ContainsName reports whether any record exists at the owner name.
	ContainsName(name string) bool
}

// Answer is a terminal resolution result, cacheable because zone data is
// immutable and TTLs are served verbatim.
type Answer struct {
	Records []domain.ResourceRecord
	RCode   domain.RCode
}

// Cache stores resolved answers keyed by question.
type Cache interface {
	Get(key string) (Answer, bool)
	Put(key string, a Answer)
}

// Responder is implemented by the service layer and consumed by transports.
// The transport handles all network and wire-format concerns; the responder
// only sees domain messages. The bool result is false when the message must
// be dropped without any reply (e.g. its QR bit was already set).
type Responder interface {
	HandleRequest(ctx context.Context, msg domain.Message, clientAddr net.Addr) (domain.Message, bool)
}
