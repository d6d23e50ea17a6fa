package rrdata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// encodeSRV encodes an SRV record into its binary representation:
// 16-bit priority, weight, and port followed by the target domain name.
func encodeSRV(text string) ([]byte, error) {
	// text = "10 60 5060 sip.example.com"
	parts := strings.Fields(text)
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid SRV record format (expected: priority weight port target): %s", text)
	}
	out := make([]byte, 6)
	for i, field := range parts[:3] {
		v, err := strconv.Atoi(field)
		if err != nil || v < 0 || v > 65535 {
			return nil, fmt.Errorf("invalid SRV field %q", field)
		}
		binary.BigEndian.PutUint16(out[i*2:], uint16(v))
	}
	target, err := encodeDomainName(parts[3])
	if err != nil {
		return nil, fmt.Errorf("invalid SRV target: %s", parts[3])
	}
	return append(out, target...), nil
}

// decodeSRV decodes SRV record data into "priority weight port target" form.
func decodeSRV(b []byte) (string, error) {
	if len(b) < 7 {
		return "", fmt.Errorf("invalid SRV data length: %d", len(b))
	}
	priority := binary.BigEndian.Uint16(b[0:2])
	weight := binary.BigEndian.Uint16(b[2:4])
	port := binary.BigEndian.Uint16(b[4:6])
	target, err := decodeDomainName(b[6:])
	if err != nil {
		return "", fmt.Errorf("invalid SRV target: %v", err)
	}
	return fmt.Sprintf("%d %d %d %s", priority, weight, port, target), nil
}
