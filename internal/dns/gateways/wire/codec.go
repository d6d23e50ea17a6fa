// Package wire implements the DNS message codec: RFC 1035 wire format in
// both directions, including name compression and UDP truncation. Decode and
// Encode are pure functions of their input, which keeps them independently
// testable and safe to run concurrently.
package wire

import (
	"errors"

	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/domain"
)

const (
	// HeaderSize is the fixed DNS header length in octets.
	HeaderSize = 12

	// MaxMessageSize is the largest message this codec will touch, matching
	// the limit imposed by the 2-octet TCP length prefix.
	MaxMessageSize = 65535

	// DefaultUDPPayloadSize is the classic RFC 1035 UDP ceiling.
	DefaultUDPPayloadSize = 512

	// maxPointerHops bounds compression pointer chains. Combined with the
	// strictly-backward pointer rule this makes name decompression provably
	// terminating on hostile input.
	maxPointerHops = 20
)

// Decode errors. All malformed input surfaces as one of these (possibly
// wrapped); the decoder never panics.
var (
	ErrMessageTooShort   = errors.New("message shorter than header")
	ErrMessageTooLarge   = errors.New("message exceeds maximum size")
	ErrTruncatedMessage  = errors.New("message truncated mid-section")
	ErrLabelTooLong      = errors.New("label exceeds 63 octets")
	ErrNameTooLong       = errors.New("name exceeds 255 octets")
	ErrReservedLabelType = errors.New("reserved label type")
	ErrPointerOutOfRange = errors.New("compression pointer does not target an earlier offset")
	ErrPointerLoop       = errors.New("compression pointer hop limit exceeded")
	ErrRDataLength       = errors.New("record data length disagrees with type")
)

// Codec converts between raw DNS message buffers and domain messages.
type Codec interface {
	// Decode parses a complete DNS message.
	Decode(data []byte) (domain.Message, error)

	// Encode serializes a message. A positive maxSize imposes the UDP
	// payload ceiling: answers that do not fit are dropped and the TC bit
	// is set. maxSize 0 means no ceiling (TCP; the transport adds the
	// 2-octet length prefix).
	Encode(msg domain.Message, maxSize int) ([]byte, error)
}

type codec struct {
	logger log.Logger
}

// NewCodec returns the RFC 1035 message codec.
func NewCodec(logger log.Logger) Codec {
	return &codec{logger: logger}
}

var _ Codec = (*codec)(nil)
