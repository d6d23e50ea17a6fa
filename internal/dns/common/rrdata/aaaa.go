package rrdata

import (
	"fmt"
	"net"
)

// encodeAAAA encodes an AAAA record address into its 16-octet representation.
func encodeAAAA(text string) ([]byte, error) {
	// text = "2001:db8::1"
	ip := net.ParseIP(text)
	if !isIPv6(ip) {
		return nil, fmt.Errorf("invalid AAAA record address: %s", text)
	}
	return ip.To16(), nil
}

// decodeAAAA decodes 16-octet AAAA record data into presentation form.
func decodeAAAA(b []byte) (string, error) {
	if len(b) != net.IPv6len {
		return "", fmt.Errorf("invalid AAAA record data length: %d", len(b))
	}
	return net.IP(b).String(), nil
}
