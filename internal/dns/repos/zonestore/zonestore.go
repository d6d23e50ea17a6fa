// Package zonestore holds the process-wide authoritative zone table. The
// store is built once at startup and never mutated, so lookups need no
// locking and every request handler shares the same instance.
package zonestore

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/leafdns/leafdns/internal/dns/common/dnsname"
	"github.com/leafdns/leafdns/internal/dns/domain"
	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

// bloomFalsePositiveRate tunes the owner-name prefilter. False positives
// only cost one extra map probe; false negatives cannot occur.
const bloomFalsePositiveRate = 0.01

// Store is an immutable mapping from (owner name, type) to authoritative
// records, plus the set of owner names that exist at all. A bloom filter
// fronts the name set so the NXDOMAIN path usually resolves on the filter
// alone.
type Store struct {
	apexes  []string
	owners  map[string]struct{}
	records map[string][]domain.ResourceRecord
	filter  *bloom.BloomFilter
	count   int
}

// Build validates the loaded zones and constructs the store. Every record
// must pass its own validation and its owner name must fall under the zone
// apex it was declared in; any violation fails the whole build, since
// serving from a partially valid zone table would be worse than not
// starting.
func Build(zones map[string][]domain.ResourceRecord) (*Store, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("no zones configured")
	}

	s := &Store{
		owners:  make(map[string]struct{}),
		records: make(map[string][]domain.ResourceRecord),
	}

	// Deterministic apex order keeps record ordering stable between runs.
	for apex := range zones {
		s.apexes = append(s.apexes, dnsname.Canonical(apex))
	}
	sort.Strings(s.apexes)

	for _, apex := range s.apexes {
		if err := dnsname.Validate(apex); err != nil {
			return nil, fmt.Errorf("zone apex %q: %w", apex, err)
		}
		for _, rr := range zones[apex] {
			if err := rr.Validate(); err != nil {
				return nil, fmt.Errorf("zone %s: record %q: %w", apex, rr.Name, err)
			}
			if !dnsname.InZone(rr.Name, apex) {
				return nil, fmt.Errorf("zone %s: record %q falls outside the zone apex", apex, rr.Name)
			}
			s.owners[rr.Name] = struct{}{}
			key := rr.Key()
			s.records[key] = append(s.records[key], rr)
			s.count++
		}
	}

	s.filter = bloom.NewWithEstimates(uint(len(s.owners)), bloomFalsePositiveRate)
	for name := range s.owners {
		s.filter.AddString(name)
	}

	return s, nil
}

// Lookup returns the records stored for the exact (name, type) pair in the
// Internet class. The returned slice is shared and must not be modified.
func (s *Store) Lookup(name string, t domain.RRType) []domain.ResourceRecord {
	return s.records[domain.LookupKey(name, t, domain.RRClassIN)]
}

// ContainsName reports whether any record exists at the given owner name.
// This distinguishes "name exists, no data of that type" (NOERROR) from
// "name does not exist" (NXDOMAIN).
func (s *Store) ContainsName(name string) bool {
	name = dnsname.Canonical(name)
	if !s.filter.TestString(name) {
		return false
	}
	_, ok := s.owners[name]
	return ok
}

// Zones returns the configured zone apexes in sorted order.
func (s *Store) Zones() []string {
	return s.apexes
}

// Count returns the total number of records in the store.
func (s *Store) Count() int {
	return s.count
}

// Ensure Store implements resolver.ZoneStore at compile time
var _ resolver.ZoneStore = (*Store)(nil)
