package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResourceRecord(t *testing.T) {
	rr, err := NewResourceRecord("WWW.Example.COM.", RRTypeA, RRClassIN, 300, []byte{192, 0, 2, 1}, "192.0.2.1")
	assert.NoError(t, err)
	assert.Equal(t, "www.example.com", rr.Name, "owner name should be canonicalized")
	assert.Equal(t, uint32(300), rr.TTL)
}

func TestResourceRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rr      ResourceRecord
		wantErr bool
	}{
		{
			name: "valid A record",
			rr:   ResourceRecord{Name: "example.com", Type: RRTypeA, Class: RRClassIN, Data: []byte{192, 0, 2, 1}},
		},
		{
			name: "valid AAAA record",
			rr:   ResourceRecord{Name: "example.com", Type: RRTypeAAAA, Class: RRClassIN, Data: make([]byte, 16)},
		},
		{
			name:    "empty name",
			rr:      ResourceRecord{Type: RRTypeA, Class: RRClassIN, Data: []byte{192, 0, 2, 1}},
			wantErr: true,
		},
		{
			name:    "invalid type",
			rr:      ResourceRecord{Name: "example.com", Type: RRType(999), Class: RRClassIN, Data: []byte{1}},
			wantErr: true,
		},
		{
			name:    "invalid class",
			rr:      ResourceRecord{Name: "example.com", Type: RRTypeA, Class: RRClass(99), Data: []byte{192, 0, 2, 1}},
			wantErr: true,
		},
		{
			name:    "A record with wrong data length",
			rr:      ResourceRecord{Name: "example.com", Type: RRTypeA, Class: RRClassIN, Data: []byte{192, 0, 2}},
			wantErr: true,
		},
		{
			name:    "AAAA record with IPv4 length",
			rr:      ResourceRecord{Name: "example.com", Type: RRTypeAAAA, Class: RRClassIN, Data: []byte{192, 0, 2, 1}},
			wantErr: true,
		},
		{
			name:    "no data and no text",
			rr:      ResourceRecord{Name: "example.com", Type: RRTypeTXT, Class: RRClassIN},
			wantErr: true,
		},
		{
			name: "text only is enough",
			rr:   ResourceRecord{Name: "example.com", Type: RRTypeCNAME, Class: RRClassIN, Text: "target.example.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rr.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLookupKey(t *testing.T) {
	key := LookupKey("WWW.Example.COM.", RRTypeAAAA, RRClassIN)
	assert.Equal(t, "www.example.com|AAAA|IN", key)

	rr := ResourceRecord{Name: "www.example.com", Type: RRTypeAAAA, Class: RRClassIN, Data: make([]byte, 16)}
	assert.Equal(t, key, rr.Key())

	q := Question{Name: "www.example.com.", Type: RRTypeAAAA, Class: RRClassIN}
	assert.Equal(t, key, q.Key())
}
