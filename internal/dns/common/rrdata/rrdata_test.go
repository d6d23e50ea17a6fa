package rrdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leafdns/leafdns/internal/dns/domain"
)

func TestEncode_A(t *testing.T) {
	data, err := Encode(domain.RRTypeA, "192.0.2.1")
	assert.NoError(t, err)
	assert.Equal(t, []byte{192, 0, 2, 1}, data)

	_, err = Encode(domain.RRTypeA, "not-an-ip")
	assert.Error(t, err)

	_, err = Encode(domain.RRTypeA, "2001:db8::1")
	assert.Error(t, err, "IPv6 address is not valid A data")
}

func TestEncode_AAAA(t *testing.T) {
	data, err := Encode(domain.RRTypeAAAA, "2001:db8::1")
	assert.NoError(t, err)
	assert.Len(t, data, 16)
	assert.Equal(t, byte(0x20), data[0])
	assert.Equal(t, byte(0x01), data[15])

	_, err = Encode(domain.RRTypeAAAA, "192.0.2.1")
	assert.Error(t, err, "IPv4 address is not valid AAAA data")
}

func TestEncodeDecode_DomainNameTypes(t *testing.T) {
	tests := []struct {
		rrtype domain.RRType
		text   string
	}{
		{domain.RRTypeCNAME, "target.example.com"},
		{domain.RRTypeNS, "ns1.example.com"},
		{domain.RRTypePTR, "host.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.rrtype.String(), func(t *testing.T) {
			data, err := Encode(tt.rrtype, tt.text)
			assert.NoError(t, err)
			// length-prefixed labels with a zero terminator
			assert.Equal(t, byte(len(strings.Split(tt.text, ".")[0])), data[0])
			assert.Equal(t, byte(0), data[len(data)-1])

			text, err := Decode(tt.rrtype, data)
			assert.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestEncodeDecode_MX(t *testing.T) {
	data, err := Encode(domain.RRTypeMX, "10 mail.example.com")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 10}, data[:2])

	text, err := Decode(domain.RRTypeMX, data)
	assert.NoError(t, err)
	assert.Equal(t, "10 mail.example.com", text)

	_, err = Encode(domain.RRTypeMX, "mail.example.com")
	assert.Error(t, err, "missing preference")

	_, err = Encode(domain.RRTypeMX, "70000 mail.example.com")
	assert.Error(t, err, "preference out of range")
}

func TestEncodeDecode_SRV(t *testing.T) {
	data, err := Encode(domain.RRTypeSRV, "10 60 5060 sip.example.com")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 10, 0, 60, 0x13, 0xc4}, data[:6])

	text, err := Decode(domain.RRTypeSRV, data)
	assert.NoError(t, err)
	assert.Equal(t, "10 60 5060 sip.example.com", text)

	_, err = Encode(domain.RRTypeSRV, "10 60 sip.example.com")
	assert.Error(t, err, "missing port")
}

func TestEncodeDecode_TXT(t *testing.T) {
	data, err := Encode(domain.RRTypeTXT, "hello world")
	assert.NoError(t, err)
	assert.Equal(t, byte(11), data[0])

	text, err := Decode(domain.RRTypeTXT, data)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", text)

	_, err = Encode(domain.RRTypeTXT, "")
	assert.Error(t, err)
}

func TestEncodeTXT_SplitsLongStrings(t *testing.T) {
	long := strings.Repeat("x", 300)
	data, err := Encode(domain.RRTypeTXT, long)
	assert.NoError(t, err)
	assert.Equal(t, byte(255), data[0], "first character string takes the full 255 octets")
	assert.Equal(t, byte(45), data[256], "remainder goes into a second character string")

	text, err := Decode(domain.RRTypeTXT, data)
	assert.NoError(t, err)
	assert.Equal(t, long, text)
}

func TestDecode_TruncatedInputs(t *testing.T) {
	tests := []struct {
		name   string
		rrtype domain.RRType
		data   []byte
	}{
		{"MX too short", domain.RRTypeMX, []byte{0, 10}},
		{"SRV too short", domain.RRTypeSRV, []byte{0, 10, 0, 60}},
		{"TXT bad length", domain.RRTypeTXT, []byte{5, 'a', 'b'}},
		{"A wrong size", domain.RRTypeA, []byte{192, 0}},
		{"AAAA wrong size", domain.RRTypeAAAA, []byte{0x20, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.rrtype, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestEncode_UnknownType(t *testing.T) {
	_, err := Encode(domain.RRTypeSOA, "whatever")
	assert.Error(t, err)
}

func TestDecode_UnknownTypeStaysOpaque(t *testing.T) {
	text, err := Decode(domain.RRType(999), []byte{0xde, 0xad})
	assert.NoError(t, err)
	assert.Equal(t, string([]byte{0xde, 0xad}), text)
}
