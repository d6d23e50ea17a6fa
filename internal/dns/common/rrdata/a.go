package rrdata

import (
	"fmt"
	"net"
)

// encodeA encodes an A record address into its 4-octet representation.
func encodeA(text string) ([]byte, error) {
	// text = "192.0.2.1"
	ip := net.ParseIP(text)
	if !isIPv4(ip) {
		return nil, fmt.Errorf("invalid A record address: %s", text)
	}
	return ip.To4(), nil
}

// decodeA decodes 4-octet A record data into dotted-quad form.
func decodeA(b []byte) (string, error) {
	if len(b) != net.IPv4len {
		return "", fmt.Errorf("invalid A record data length: %d", len(b))
	}
	return net.IP(b).String(), nil
}
