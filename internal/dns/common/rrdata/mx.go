package rrdata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// encodeMX encodes an MX record into its binary representation:
// a 16-bit preference followed by the exchange domain name.
func encodeMX(text string) ([]byte, error) {
	// text = "10 mail.example.com"
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid MX record format (expected: preference exchange): %s", text)
	}
	pref, err := strconv.Atoi(parts[0])
	if err != nil || pref < 0 || pref > 65535 {
		return nil, fmt.Errorf("invalid MX preference: %s", parts[0])
	}
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, uint16(pref))
	exchange, err := encodeDomainName(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid MX exchange domain: %s", parts[1])
	}
	return append(out, exchange...), nil
}

// decodeMX decodes MX record data into "preference exchange" form.
func decodeMX(b []byte) (string, error) {
	if len(b) < 3 {
		return "", fmt.Errorf("invalid MX data length: %d", len(b))
	}
	pref := binary.BigEndian.Uint16(b[:2])
	exchange, err := decodeDomainName(b[2:])
	if err != nil {
		return "", fmt.Errorf("invalid MX exchange domain: %v", err)
	}
	return fmt.Sprintf("%d %s", pref, exchange), nil
}
