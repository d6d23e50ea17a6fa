package domain

import "fmt"

// RCode represents a DNS response code indicating the result of a query.
type RCode uint8

// DNS response code constants per RFC 1035.
const (
	RCodeNoError        RCode = 0 // NOERROR - no error condition
	RCodeFormatError    RCode = 1 // FORMERR - query could not be interpreted
	RCodeServerFailure  RCode = 2 // SERVFAIL - internal failure
	RCodeNameError      RCode = 3 // NXDOMAIN - name does not exist
	RCodeNotImplemented RCode = 4 // NOTIMP - operation not supported
	RCodeRefused        RCode = 5 // REFUSED - policy refusal
)

// IsValid returns true if the RCode is within the supported response code range.
func (r RCode) IsValid() bool {
	return r <= 10
}

// String returns the textual representation of the RCode.
func (r RCode) String() string {
	switch r {
	case RCodeNoError:
		return "NOERROR"
	case RCodeFormatError:
		return "FORMERR"
	case RCodeServerFailure:
		return "SERVFAIL"
	case RCodeNameError:
		return "NXDOMAIN"
	case RCodeNotImplemented:
		return "NOTIMP"
	case RCodeRefused:
		return "REFUSED"
	default:
		return fmt.Sprintf("RCODE%d", uint8(r))
	}
}
