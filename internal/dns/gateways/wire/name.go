package wire

import (
	"encoding/binary"
	"strings"

	"github.com/leafdns/leafdns/internal/dns/common/dnsname"
)

// decodeName reads a domain name starting at offset, following compression
// pointers per RFC 1035 §4.1.4. It returns the name in presentation form and
// the offset of the first octet after the name in the original stream.
//
// Pointer safety: every pointer must target a strictly earlier offset than
// the position it was read from, and at most maxPointerHops pointers are
// followed. Either rule alone terminates the walk; together they reject
// pointer cycles and forward references without ever re-reading a region.
func decodeName(data []byte, offset int) (string, int, error) {
	var labels []string
	nameLen := 1 // terminating zero octet
	hops := 0
	pos := offset
	next := -1 // resume offset in the original stream, set at the first pointer

	for {
		if pos >= len(data) {
			return "", 0, ErrTruncatedMessage
		}
		b := data[pos]
		switch {
		case b == 0:
			if next < 0 {
				next = pos + 1
			}
			return strings.Join(labels, "."), next, nil

		case b&0xC0 == 0xC0:
			if pos+1 >= len(data) {
				return "", 0, ErrTruncatedMessage
			}
			ptr := int(binary.BigEndian.Uint16(data[pos:pos+2]) & 0x3FFF)
			if ptr >= pos {
				return "", 0, ErrPointerOutOfRange
			}
			hops++
			if hops > maxPointerHops {
				return "", 0, ErrPointerLoop
			}
			if next < 0 {
				next = pos + 2
			}
			pos = ptr

		case b&0xC0 != 0:
			// 0x40 and 0x80 label types were never standardized.
			return "", 0, ErrReservedLabelType

		default:
			labelLen := int(b)
			if labelLen > dnsname.MaxLabelLength {
				return "", 0, ErrLabelTooLong
			}
			if pos+1+labelLen > len(data) {
				return "", 0, ErrTruncatedMessage
			}
			nameLen += labelLen + 1
			if nameLen > dnsname.MaxNameLength {
				return "", 0, ErrNameTooLong
			}
			labels = append(labels, string(data[pos+1:pos+1+labelLen]))
			pos += 1 + labelLen
		}
	}
}

// nameWriter appends wire-format names to a message buffer, compressing
// repeated owner names with a pointer to their first occurrence. Only whole
// names are matched; the table never changes for identical input, so
// encoding stays deterministic.
type nameWriter struct {
	offsets map[string]int
}

func newNameWriter() *nameWriter {
	return &nameWriter{offsets: make(map[string]int)}
}

// append writes name at the end of msg and returns the grown buffer.
// The name must already be validated; the root name writes a lone zero octet.
func (w *nameWriter) append(msg []byte, name string) ([]byte, error) {
	name = dnsname.Canonical(name)
	if name == "" {
		return append(msg, 0), nil
	}
	if err := dnsname.Validate(name); err != nil {
		return nil, err
	}
	if off, ok := w.offsets[name]; ok {
		return binary.BigEndian.AppendUint16(msg, 0xC000|uint16(off)), nil
	}
	// Pointers only reach 14 bits; names further in are written in full.
	if len(msg) < 0x4000 {
		w.offsets[name] = len(msg)
	}
	for _, label := range strings.Split(name, ".") {
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}
	return append(msg, 0), nil
}
