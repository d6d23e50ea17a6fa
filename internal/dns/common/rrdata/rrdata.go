// Package rrdata converts record data between its zone-file presentation
// form and the wire-format RDATA octets defined by RFC 1035.
package rrdata

import (
	"fmt"

	"github.com/leafdns/leafdns/internal/dns/domain"
)

// Encode converts a record value from presentation form to wire format,
// based on its type.
func Encode(rrType domain.RRType, text string) ([]byte, error) {
	switch rrType {
	case domain.RRTypeA:
		return encodeA(text)
	case domain.RRTypeNS:
		return encodeNS(text)
	case domain.RRTypeCNAME:
		return encodeCNAME(text)
	case domain.RRTypePTR:
		return encodePTR(text)
	case domain.RRTypeMX:
		return encodeMX(text)
	case domain.RRTypeTXT:
		return encodeTXT(text)
	case domain.RRTypeAAAA:
		return encodeAAAA(text)
	case domain.RRTypeSRV:
		return encodeSRV(text)
	default:
		return nil, fmt.Errorf("no %s record encoder", rrType)
	}
}

// Decode converts wire-format RDATA back to presentation form, based on its type.
func Decode(rrType domain.RRType, data []byte) (string, error) {
	switch rrType {
	case domain.RRTypeA:
		return decodeA(data)
	case domain.RRTypeNS:
		return decodeNS(data)
	case domain.RRTypeCNAME:
		return decodeCNAME(data)
	case domain.RRTypePTR:
		return decodePTR(data)
	case domain.RRTypeMX:
		return decodeMX(data)
	case domain.RRTypeTXT:
		return decodeTXT(data)
	case domain.RRTypeAAAA:
		return decodeAAAA(data)
	case domain.RRTypeSRV:
		return decodeSRV(data)
	default:
		// Unknown RDATA stays opaque; callers keep the raw octets.
		return string(data), nil
	}
}
