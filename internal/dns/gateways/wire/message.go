package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/leafdns/leafdns/internal/dns/common/rrdata"
	"github.com/leafdns/leafdns/internal/dns/domain"
)

// Header flag bit masks within the 16-bit flags word.
const (
	flagQR     = 1 << 15
	flagAA     = 1 << 10
	flagTC     = 1 << 9
	flagRD     = 1 << 8
	flagRA     = 1 << 7
	flagAD     = 1 << 5
	flagCD     = 1 << 4
	opcodeMask = 0xF << 11
	rcodeMask  = 0xF
)

// Decode parses a raw buffer into a domain.Message. The declared section
// counts must be backed by actual content; any shortfall is an error, never
// a partial result.
func (c *codec) Decode(data []byte) (domain.Message, error) {
	if len(data) < HeaderSize {
		return domain.Message{}, ErrMessageTooShort
	}
	if len(data) > MaxMessageSize {
		return domain.Message{}, ErrMessageTooLarge
	}

	flags := binary.BigEndian.Uint16(data[2:4])
	msg := domain.Message{
		Header: domain.Header{
			ID:                 binary.BigEndian.Uint16(data[0:2]),
			Response:           flags&flagQR != 0,
			OpCode:             domain.OpCode(flags & opcodeMask >> 11),
			Authoritative:      flags&flagAA != 0,
			Truncated:          flags&flagTC != 0,
			RecursionDesired:   flags&flagRD != 0,
			RecursionAvailable: flags&flagRA != 0,
			AuthenticData:      flags&flagAD != 0,
			CheckingDisabled:   flags&flagCD != 0,
			RCode:              domain.RCode(flags & rcodeMask),
		},
	}

	qdCount := int(binary.BigEndian.Uint16(data[4:6]))
	anCount := int(binary.BigEndian.Uint16(data[6:8]))
	nsCount := int(binary.BigEndian.Uint16(data[8:10]))
	arCount := int(binary.BigEndian.Uint16(data[10:12]))

	offset := HeaderSize
	for i := 0; i < qdCount; i++ {
		q, next, err := decodeQuestion(data, offset)
		if err != nil {
			return domain.Message{}, fmt.Errorf("question %d: %w", i, err)
		}
		msg.Questions = append(msg.Questions, q)
		offset = next
	}

	sections := []struct {
		name  string
		count int
		dst   *[]domain.ResourceRecord
	}{
		{"answer", anCount, &msg.Answers},
		{"authority", nsCount, &msg.Authority},
		{"additional", arCount, &msg.Additional},
	}
	for _, s := range sections {
		for i := 0; i < s.count; i++ {
			rr, next, err := decodeRecord(data, offset)
			if err != nil {
				return domain.Message{}, fmt.Errorf("%s record %d: %w", s.name, i, err)
			}
			*s.dst = append(*s.dst, rr)
			offset = next
		}
	}

	return msg, nil
}

// decodeQuestion parses one question entry starting at offset.
func decodeQuestion(data []byte, offset int) (domain.Question, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.Question{}, 0, err
	}
	if offset+4 > len(data) {
		return domain.Question{}, 0, ErrTruncatedMessage
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
	}
	return q, offset + 4, nil
}

// decodeRecord parses one resource record starting at offset, checking that
// the RDATA length matches what fixed-size types mandate.
func decodeRecord(data []byte, offset int) (domain.ResourceRecord, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.ResourceRecord{}, 0, err
	}
	if offset+10 > len(data) {
		return domain.ResourceRecord{}, 0, ErrTruncatedMessage
	}
	rrType := domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2]))
	rrClass := domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
	ttl := binary.BigEndian.Uint32(data[offset+4 : offset+8])
	rdLen := int(binary.BigEndian.Uint16(data[offset+8 : offset+10]))
	offset += 10

	if offset+rdLen > len(data) {
		return domain.ResourceRecord{}, 0, ErrTruncatedMessage
	}
	rdata := make([]byte, rdLen)
	copy(rdata, data[offset:offset+rdLen])
	offset += rdLen

	switch rrType {
	case domain.RRTypeA:
		if rdLen != 4 {
			return domain.ResourceRecord{}, 0, fmt.Errorf("%w: A with %d octets", ErrRDataLength, rdLen)
		}
	case domain.RRTypeAAAA:
		if rdLen != 16 {
			return domain.ResourceRecord{}, 0, fmt.Errorf("%w: AAAA with %d octets", ErrRDataLength, rdLen)
		}
	}

	rr := domain.ResourceRecord{
		Name:  name,
		Type:  rrType,
		Class: rrClass,
		TTL:   ttl,
		Data:  rdata,
	}
	// Presentation form is best-effort: foreign messages may compress names
	// inside RDATA, which the type codecs reject. The raw octets stay valid.
	if text, err := rrdata.Decode(rrType, rdata); err == nil {
		rr.Text = text
	}
	return rr, offset, nil
}

// Encode serializes a message, recomputing the section counts from the
// sections themselves. With a positive maxSize the answer section is cut at
// the first record that does not fit, the authority and additional sections
// are dropped, and the TC bit is set. Identical input always yields
// identical bytes.
func (c *codec) Encode(msg domain.Message, maxSize int) ([]byte, error) {
	if maxSize != 0 && maxSize < HeaderSize {
		return nil, fmt.Errorf("maxSize %d below header size", maxSize)
	}
	limit := maxSize
	if limit == 0 || limit > MaxMessageSize {
		limit = MaxMessageSize
	}

	buf := make([]byte, HeaderSize, 512)
	names := newNameWriter()

	for i, q := range msg.Questions {
		grown, err := appendQuestion(buf, names, q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if len(grown) > limit {
			// No room for even the question section: header-only reply
			// with TC, the client must retry over TCP.
			return finishHeader(buf[:HeaderSize], msg.Header, true, sectionCounts{}), nil
		}
		buf = grown
	}

	counts := sectionCounts{qd: len(msg.Questions)}
	truncated := false

	for i, rr := range msg.Answers {
		grown, err := appendRecord(buf, names, rr)
		if err != nil {
			return nil, fmt.Errorf("answer record %d: %w", i, err)
		}
		if len(grown) > limit {
			truncated = true
			break
		}
		buf = grown
		counts.an++
	}

	if !truncated {
		for i, rr := range msg.Authority {
			grown, err := appendRecord(buf, names, rr)
			if err != nil {
				return nil, fmt.Errorf("authority record %d: %w", i, err)
			}
			if len(grown) > limit {
				truncated = true
				break
			}
			buf = grown
			counts.ns++
		}
	}
	if !truncated {
		for i, rr := range msg.Additional {
			grown, err := appendRecord(buf, names, rr)
			if err != nil {
				return nil, fmt.Errorf("additional record %d: %w", i, err)
			}
			if len(grown) > limit {
				truncated = true
				break
			}
			buf = grown
			counts.ar++
		}
	}

	if truncated {
		c.logger.Debug(map[string]any{
			"id":      msg.Header.ID,
			"limit":   limit,
			"answers": counts.an,
			"dropped": len(msg.Answers) - counts.an + len(msg.Authority) - counts.ns + len(msg.Additional) - counts.ar,
		}, "Response truncated to UDP ceiling")
	}

	return finishHeader(buf, msg.Header, truncated, counts), nil
}

// sectionCounts carries the number of entries actually serialized.
type sectionCounts struct {
	qd, an, ns, ar int
}

// finishHeader writes the header word, flag bits, and final counts into the
// first 12 octets of buf and returns it.
func finishHeader(buf []byte, h domain.Header, truncated bool, counts sectionCounts) []byte {
	flags := uint16(h.OpCode&0xF) << 11
	flags |= uint16(h.RCode) & rcodeMask
	if h.Response {
		flags |= flagQR
	}
	if h.Authoritative {
		flags |= flagAA
	}
	if h.Truncated || truncated {
		flags |= flagTC
	}
	if h.RecursionDesired {
		flags |= flagRD
	}
	if h.RecursionAvailable {
		flags |= flagRA
	}
	if h.AuthenticData {
		flags |= flagAD
	}
	if h.CheckingDisabled {
		flags |= flagCD
	}

	binary.BigEndian.PutUint16(buf[0:2], h.ID)
	binary.BigEndian.PutUint16(buf[2:4], flags)
	binary.BigEndian.PutUint16(buf[4:6], uint16(counts.qd))
	binary.BigEndian.PutUint16(buf[6:8], uint16(counts.an))
	binary.BigEndian.PutUint16(buf[8:10], uint16(counts.ns))
	binary.BigEndian.PutUint16(buf[10:12], uint16(counts.ar))
	return buf
}

// appendQuestion serializes one question entry onto buf.
func appendQuestion(buf []byte, names *nameWriter, q domain.Question) ([]byte, error) {
	buf, err := names.append(buf, q.Name)
	if err != nil {
		return nil, err
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Class))
	return buf, nil
}

// appendRecord serializes one resource record onto buf.
func appendRecord(buf []byte, names *nameWriter, rr domain.ResourceRecord) ([]byte, error) {
	if len(rr.Data) > MaxMessageSize {
		return nil, fmt.Errorf("record data too large: %d octets", len(rr.Data))
	}
	buf, err := names.append(buf, rr.Name)
	if err != nil {
		return nil, err
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(rr.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(rr.Class))
	buf = binary.BigEndian.AppendUint32(buf, rr.TTL)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(rr.Data)))
	buf = append(buf, rr.Data...)
	return buf, nil
}
