// Package dnsname holds the name-handling rules shared by the zone loader,
// the zone store, and the resolver. Names are compared in canonical form:
// lowercase ASCII with no trailing dot.
package dnsname

import (
	"fmt"
	"strings"
)

const (
	// MaxLabelLength is the longest permitted single label (RFC 1035 §2.3.4).
	MaxLabelLength = 63
	// MaxNameLength is the longest permitted encoded name, in octets.
	MaxNameLength = 255
)

// Canonical returns a DNS name in canonical form:
// lowercased, trimmed of surrounding whitespace, and without trailing dots.
// The trailing dot carries no information once a name is fully qualified,
// so dropping it keeps map keys and comparisons uniform.
func Canonical(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// InZone reports whether the canonical owner name falls under the canonical
// zone apex (the apex itself counts).
func InZone(name, apex string) bool {
	name = Canonical(name)
	apex = Canonical(apex)
	if name == apex {
		return true
	}
	return strings.HasSuffix(name, "."+apex)
}

// Validate checks a canonical name against the RFC 1035 length limits.
// The encoded length is the sum of each label plus its length octet,
// plus the terminating zero octet.
func Validate(name string) error {
	name = Canonical(name)
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	encoded := 1 // root terminator
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return fmt.Errorf("empty label in name %q", name)
		}
		if len(label) > MaxLabelLength {
			return fmt.Errorf("label %q exceeds %d octets", label, MaxLabelLength)
		}
		encoded += len(label) + 1
	}
	if encoded > MaxNameLength {
		return fmt.Errorf("name %q exceeds %d octets encoded", name, MaxNameLength)
	}
	return nil
}
