package rrdata

// encodeNS encodes an NS record's name server into wire format.
func encodeNS(text string) ([]byte, error) {
	// text = "ns1.example.com"
	return encodeDomainName(text)
}

// decodeNS decodes NS record data into the name server's name.
func decodeNS(b []byte) (string, error) {
	return decodeDomainName(b)
}
