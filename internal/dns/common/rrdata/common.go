package rrdata

import (
	"fmt"
	"net"
	"strings"

	"github.com/leafdns/leafdns/internal/dns/common/dnsname"
)

// encodeDomainName encodes a domain name into uncompressed wire format
// (length-prefixed labels terminated by a zero octet). RDATA never carries
// compression pointers in this server; pointers into the enclosing message
// would break once records are copied between messages.
func encodeDomainName(name string) ([]byte, error) {
	name = dnsname.Canonical(name)
	if err := dnsname.Validate(name); err != nil {
		return nil, err
	}
	var encoded []byte
	for _, label := range strings.Split(name, ".") {
		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, label...)
	}
	encoded = append(encoded, 0)
	return encoded, nil
}

// decodeDomainName decodes an uncompressed wire-format domain name.
func decodeDomainName(b []byte) (string, error) {
	var labels []string
	for i := 0; i < len(b); {
		labelLen := int(b[i])
		if labelLen == 0 {
			break
		}
		if labelLen > dnsname.MaxLabelLength {
			return "", fmt.Errorf("invalid label length %d", labelLen)
		}
		i++
		if i+labelLen > len(b) {
			return "", fmt.Errorf("invalid domain name encoding")
		}
		labels = append(labels, string(b[i:i+labelLen]))
		i += labelLen
	}
	return strings.Join(labels, "."), nil
}

// isIPv4 reports whether ip is a well-formed IPv4 address.
func isIPv4(ip net.IP) bool {
	return ip != nil && ip.To4() != nil
}

// isIPv6 reports whether ip is a well-formed IPv6 address that is not an
// IPv4-mapped address.
func isIPv6(ip net.IP) bool {
	return ip != nil && ip.To16() != nil && ip.To4() == nil
}
