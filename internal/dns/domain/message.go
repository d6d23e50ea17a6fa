package domain

import "fmt"

// OpCode is the 4-bit operation code carried in a DNS message header.
type OpCode uint8

// DNS OpCode constants per RFC 1035 and RFC 2136.
const (
	OpCodeQuery  OpCode = 0 // QUERY - standard query
	OpCodeIQuery OpCode = 1 // IQUERY - inverse query (obsolete)
	OpCodeStatus OpCode = 2 // STATUS - server status request
	OpCodeNotify OpCode = 4 // NOTIFY - zone change notification
	OpCodeUpdate OpCode = 5 // UPDATE - dynamic update
)

// String returns the textual representation of the OpCode.
func (o OpCode) String() string {
	switch o {
	case OpCodeQuery:
		return "QUERY"
	case OpCodeIQuery:
		return "IQUERY"
	case OpCodeStatus:
		return "STATUS"
	case OpCodeNotify:
		return "NOTIFY"
	case OpCodeUpdate:
		return "UPDATE"
	default:
		return fmt.Sprintf("OPCODE%d", uint8(o))
	}
}

// Header holds the transaction ID and decoded flag bits of a DNS message.
// The four section counts are intentionally absent: on decode they must match
// the parsed sections, and on encode they are recomputed from the section
// slices, so storing them would only invite stale values.
type Header struct {
	ID                 uint16
	Response           bool
	OpCode             OpCode
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	AuthenticData      bool
	CheckingDisabled   bool
	RCode              RCode
}

// Message represents a complete DNS message with its four sections,
// per RFC 1035 §4.1.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// Reply returns a response skeleton for the message: same ID and opcode,
// QR set, RD echoed, and the original question section carried over.
func (m Message) Reply() Message {
	return Message{
		Header: Header{
			ID:               m.Header.ID,
			Response:         true,
			OpCode:           m.Header.OpCode,
			RecursionDesired: m.Header.RecursionDesired,
		},
		Questions: m.Questions,
	}
}

// ErrorReply returns a response carrying only the header and the given
// response code. Used when a query could be identified but not answered.
func (m Message) ErrorReply(rcode RCode) Message {
	r := m.Reply()
	r.Header.RCode = rcode
	return r
}

// Validate checks the message's records for structural validity.
func (m Message) Validate() error {
	for i, q := range m.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("invalid question at index %d: %w", i, err)
		}
	}
	sections := []struct {
		name string
		rrs  []ResourceRecord
	}{
		{"answer", m.Answers},
		{"authority", m.Authority},
		{"additional", m.Additional},
	}
	for _, s := range sections {
		for i, rr := range s.rrs {
			if err := rr.Validate(); err != nil {
				return fmt.Errorf("invalid %s record at index %d: %w", s.name, i, err)
			}
		}
	}
	return nil
}
