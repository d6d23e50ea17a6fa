package rrdata

import (
	"fmt"
	"strings"
)

// maxCharacterString is the longest single <character-string> in TXT RDATA.
const maxCharacterString = 255

// encodeTXT encodes TXT text into wire format: a sequence of
// length-prefixed character strings, splitting at 255-octet boundaries.
func encodeTXT(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("TXT record must not be empty")
	}
	var out []byte
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxCharacterString {
			chunk = chunk[:maxCharacterString]
		}
		out = append(out, byte(len(chunk)))
		out = append(out, chunk...)
		text = text[len(chunk):]
	}
	return out, nil
}

// decodeTXT decodes TXT record data, concatenating its character strings.
func decodeTXT(b []byte) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(b); {
		n := int(b[i])
		i++
		if i+n > len(b) {
			return "", fmt.Errorf("invalid TXT character string length")
		}
		sb.Write(b[i : i+n])
		i += n
	}
	return sb.String(), nil
}
