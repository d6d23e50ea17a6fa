package domain

import (
	"fmt"

	"github.com/leafdns/leafdns/internal/dns/common/dnsname"
)

// ResourceRecord represents a single authoritative DNS record. Records are
// built once at startup from zone configuration and are never mutated, so
// they are safe to share across concurrent request handlers.
type ResourceRecord struct {
	Name  string
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  []byte // wire-encoded RDATA
	Text  string // presentation form of the RDATA, e.g. a CNAME target
}

// rdataSizes lists the exact RDATA length mandated for fixed-size types.
var rdataSizes = map[RRType]int{
	RRTypeA:    4,
	RRTypeAAAA: 16,
}

// NewResourceRecord constructs a ResourceRecord with a canonical owner name
// and validates its fields.
func NewResourceRecord(name string, rrtype RRType, class RRClass, ttl uint32, data []byte, text string) (ResourceRecord, error) {
	rr := ResourceRecord{
		Name:  dnsname.Canonical(name),
		Type:  rrtype,
		Class: class,
		TTL:   ttl,
		Data:  data,
		Text:  text,
	}
	if err := rr.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return rr, nil
}

// Validate checks whether the ResourceRecord fields are valid, including the
// type-mandated RDATA length for fixed-size types.
func (rr ResourceRecord) Validate() error {
	if rr.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if !rr.Type.IsValid() {
		return fmt.Errorf("invalid RRType: %d", rr.Type)
	}
	if !rr.Class.IsValid() {
		return fmt.Errorf("invalid RRClass: %d", rr.Class)
	}
	if want, ok := rdataSizes[rr.Type]; ok && len(rr.Data) != want {
		return fmt.Errorf("%s record data must be %d octets, got %d", rr.Type, want, len(rr.Data))
	}
	if len(rr.Data) == 0 && rr.Text == "" {
		return fmt.Errorf("either Data or Text must be set")
	}
	return nil
}

// Key returns the lookup key for the record's owner name, type, and class.
func (rr ResourceRecord) Key() string {
	return LookupKey(rr.Name, rr.Type, rr.Class)
}

// LookupKey returns a consistent store key derived from a DNS name, type,
// and class. The pipe separator cannot occur in a hostname and avoids
// ambiguity with colons in IPv6 RDATA text.
func LookupKey(name string, t RRType, c RRClass) string {
	return dnsname.Canonical(name) + "|" + t.String() + "|" + c.String()
}
