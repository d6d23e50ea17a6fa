package rrdata

// encodePTR encodes a PTR record target into wire format.
func encodePTR(text string) ([]byte, error) {
	// text = "host.example.com"
	return encodeDomainName(text)
}

// decodePTR decodes PTR record data into the pointed-to name.
func decodePTR(b []byte) (string, error) {
	return decodeDomainName(b)
}
